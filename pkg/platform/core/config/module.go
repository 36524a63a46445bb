package config

import "go.uber.org/fx"

// Module provides *Config to the Fx graph. The embedded YAML must be supplied
// as EmbeddedConfig and the .env path may be supplied as `name:"envFilePath"`.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
)
