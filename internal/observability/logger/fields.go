package logger

import (
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/idpbridge/internal/util"
)

// =================================================================================
// CAMPOS ESTÁNDAR - INVOCACIÓN
// =================================================================================

// InvocationID identifica una invocación one-shot (stdin -> stdout).
func InvocationID(v string) zap.Field {
	return zap.String("invocation_id", v)
}

// Op crea un campo para la operación del bridge (sign_up, initiate_auth, ...).
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// ErrorCode crea un campo para el error_code del sobre de respuesta.
func ErrorCode(v string) zap.Field {
	return zap.String("error_code", v)
}

// Outcome crea un campo para el resultado: "ok" | "failure".
func Outcome(v string) zap.Field {
	return zap.String("outcome", v)
}

// Email agrega el email enmascarado. Nunca loguear el email en claro.
func Email(v string) zap.Field {
	return zap.String("email", util.MaskEmail(v))
}

// Region crea un campo para la región del proveedor de identidad.
func Region(v string) zap.Field {
	return zap.String("region", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status (HTTP o hint del sobre).
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field {
	return zap.Int64("duration_ms", d.Milliseconds())
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Layer crea un campo para la capa (runner, dispatcher, provider, http).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}
