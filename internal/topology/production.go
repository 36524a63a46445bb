package topology

import "time"

// Production replication settings of the API.
const (
	APIReplicas        = 3
	RestartMaxAttempts = 3
	RestartDelay       = 5 * time.Second
)

// Production runs prebuilt images. Only the gateway publishes ports; it routes
// to API replicas once their health probe passes.
func Production() *Topology {
	db := databaseService()
	db.Restart = "always"

	redis := redisService()
	redis.Command = []string{"redis-server", "--appendonly", "yes", "--requirepass", "${REDIS_PASSWORD:?REDIS_PASSWORD must be set}"}
	redis.Environment = map[string]string{"REDISCLI_AUTH": "${REDIS_PASSWORD}"}
	redis.Restart = "always"

	apiEnv := apiEnvironment()
	apiEnv["PROJECT_ENVIRONMENT"] = "production"

	api := &Service{
		Image:       DefaultAPIImage,
		EnvFile:     []string{EnvFileRef},
		Environment: apiEnv,
		Volumes:     []string{"models:/app/models", "logs:/app/logs"},
		DependsOn:   apiDependencies(),
		HealthCheck: withHealthCheck(APIHealthCheck),
		Deploy: &Deploy{
			Replicas: APIReplicas,
			Resources: &Resources{
				Limits:       &ResourceSpec{CPUs: "1.0", Memory: "1G"},
				Reservations: &ResourceSpec{CPUs: "0.5", Memory: "512M"},
			},
			RestartPolicy: &RestartPolicy{
				Condition:   "on-failure",
				Delay:       Duration(RestartDelay),
				MaxAttempts: RestartMaxAttempts,
			},
		},
	}

	gateway := &Service{
		Image:   DefaultAPIImage,
		Command: []string{"gateway"},
		EnvFile: []string{EnvFileRef},
		Environment: map[string]string{
			"GATEWAY_LISTEN_ADDR": ":80",
			"GATEWAY_UPSTREAMS":   "http://api:8000",
		},
		Ports:     []string{"80:80", "443:443"},
		Volumes:   []string{"./certs:/app/certs:ro"},
		DependsOn: map[string]Dependency{"api": {Condition: ConditionHealthy}},
		HealthCheck: &HealthCheck{
			Test:     []string{"CMD", "climanegocios", "healthcheck", "--url", "http://127.0.0.1:80/gateway/health"},
			Interval: Duration(30 * time.Second),
			Timeout:  Duration(10 * time.Second),
			Retries:  3,
		},
		Restart: "always",
	}

	return &Topology{
		Name: "climanegocios",
		Services: map[string]*Service{
			"db":        db,
			"redis":     redis,
			"bootstrap": bootstrapService(DefaultAPIImage, nil),
			"api":       api,
			"gateway":   gateway,
		},
		Volumes: map[string]Volume{
			"postgres_data": {},
			"redis_data":    {},
			"models":        {},
			"logs":          {},
		},
	}
}
