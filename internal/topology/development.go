package topology

import "fmt"

// Development is the local stack: every service publishes its port on the host
// and the admin tools start with the tools profile.
func Development() *Topology {
	build := &Build{Context: ".", Dockerfile: "Dockerfile"}

	db := databaseService()
	db.Ports = []string{"5432:5432"}
	db.Restart = "unless-stopped"

	redis := redisService()
	redis.Ports = []string{"6379:6379"}
	redis.Restart = "unless-stopped"

	api := &Service{
		Build:       build,
		EnvFile:     []string{EnvFileRef},
		Environment: apiEnvironment(),
		Ports:       []string{fmt.Sprintf("%d:%d", APIPort, APIPort)},
		Volumes:     []string{"./models:/app/models", "./logs:/app/logs", "./uploads:/app/uploads"},
		DependsOn:   apiDependencies(),
		HealthCheck: withHealthCheck(APIHealthCheck),
		Restart:     "unless-stopped",
	}

	frontend := &Service{
		Image:     FrontendImage,
		Ports:     []string{"3000:80"},
		Volumes:   []string{"./frontend:/usr/share/nginx/html:ro"},
		DependsOn: map[string]Dependency{"api": {Condition: ConditionStarted}},
		Restart:   "unless-stopped",
	}

	pgadmin := &Service{
		Image: PgAdminImage,
		Environment: map[string]string{
			"PGADMIN_DEFAULT_EMAIL":    "${PGADMIN_DEFAULT_EMAIL:-admin@climanegocios.com}",
			"PGADMIN_DEFAULT_PASSWORD": "${PGADMIN_DEFAULT_PASSWORD:-admin}",
		},
		Ports:     []string{"5050:80"},
		DependsOn: map[string]Dependency{"db": {Condition: ConditionHealthy}},
		Profiles:  []string{ToolsProfile},
	}

	taskMonitor := &Service{
		Image:     TaskMonitorImage,
		Command:   []string{"celery", "--broker=redis://redis:6379/0", "flower", "--port=5555"},
		Ports:     []string{"5555:5555"},
		DependsOn: map[string]Dependency{"redis": {Condition: ConditionHealthy}},
		Profiles:  []string{ToolsProfile},
	}

	return &Topology{
		Name: "climanegocios",
		Services: map[string]*Service{
			"db":           db,
			"redis":        redis,
			"bootstrap":    bootstrapService("", build),
			"api":          api,
			"frontend":     frontend,
			"pgadmin":      pgadmin,
			"task-monitor": taskMonitor,
		},
		Volumes: map[string]Volume{
			"postgres_data": {},
			"redis_data":    {},
		},
	}
}
