// Package logger provee el logger Zap singleton del bridge con scoping por contexto.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Stderr siempre: stdout es el canal de respuesta del bridge (un único JSON),
//     así que ningún log puede escribirse ahí.
//   - Context Scoping: cada invocación o request HTTP lleva su propio logger
//     "scoped" (invocation_id, op, request_id) sin crear un nuevo core.
//   - Environments: "dev" usa consola, "prod" usa JSON.
//
// # Usage
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Info("operation completed", logger.Op("sign_up"), logger.Email(email))
package logger
