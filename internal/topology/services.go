package topology

import "time"

// Images and ports shared by both topologies.
const (
	PostgresImage    = "postgis/postgis:15-3.4-alpine"
	RedisImage       = "redis:7-alpine"
	FrontendImage    = "nginx:1.27-alpine"
	PgAdminImage     = "dpage/pgadmin4:8"
	TaskMonitorImage = "mher/flower:2.0"
	DefaultAPIImage  = "${API_IMAGE:-climanegocios/api:latest}"

	APIPort = 8000
)

// EnvFileVar names the variable the launcher sets to the chosen environment
// file; services read their env_file through it and fall back to .env.
const (
	EnvFileVar = "CLIMA_ENV_FILE"
	EnvFileRef = "${" + EnvFileVar + ":-.env}"
)

// ToolsProfile gates the optional admin services.
const ToolsProfile = "tools"

// API liveness probe, shared by the compose files and the image.
var APIHealthCheck = HealthCheck{
	Test:        []string{"CMD", "climanegocios", "healthcheck"},
	Interval:    Duration(30 * time.Second),
	Timeout:     Duration(10 * time.Second),
	Retries:     3,
	StartPeriod: Duration(5 * time.Second),
}

func databaseService() *Service {
	return &Service{
		Image: PostgresImage,
		Environment: map[string]string{
			"POSTGRES_USER":     "${POSTGRES_USER:-climanegocios}",
			"POSTGRES_PASSWORD": "${POSTGRES_PASSWORD:-password}",
			"POSTGRES_DB":       "${POSTGRES_DB:-climanegocios_db}",
		},
		Volumes: []string{"postgres_data:/var/lib/postgresql/data"},
		HealthCheck: &HealthCheck{
			Test:     []string{"CMD-SHELL", "pg_isready -U $${POSTGRES_USER} -d $${POSTGRES_DB}"},
			Interval: Duration(10 * time.Second),
			Timeout:  Duration(5 * time.Second),
			Retries:  5,
		},
	}
}

func redisService() *Service {
	return &Service{
		Image:   RedisImage,
		Command: []string{"redis-server", "--appendonly", "yes"},
		Volumes: []string{"redis_data:/data"},
		HealthCheck: &HealthCheck{
			Test:     []string{"CMD", "redis-cli", "ping"},
			Interval: Duration(10 * time.Second),
			Timeout:  Duration(5 * time.Second),
			Retries:  5,
		},
	}
}

// bootstrapService initializes the database once per start and exits.
func bootstrapService(image string, build *Build) *Service {
	return &Service{
		Image:   image,
		Build:   build,
		Command: []string{"climactl", "bootstrap"},
		EnvFile: []string{EnvFileRef},
		Environment: map[string]string{
			"POSTGRES_HOST": "db",
		},
		DependsOn: map[string]Dependency{
			"db": {Condition: ConditionHealthy},
		},
		Restart: "no",
	}
}

func apiEnvironment() map[string]string {
	return map[string]string{
		"POSTGRES_HOST": "db",
		"REDIS_HOST":    "redis",
	}
}

func apiDependencies() map[string]Dependency {
	return map[string]Dependency{
		"db":        {Condition: ConditionHealthy},
		"redis":     {Condition: ConditionHealthy},
		"bootstrap": {Condition: ConditionCompleted},
	}
}

func withHealthCheck(hc HealthCheck) *HealthCheck {
	hc.Test = append([]string(nil), hc.Test...)
	return &hc
}
