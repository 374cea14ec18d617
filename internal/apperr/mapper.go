package apperr

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// envelope is the JSON body written for every mapped error.
type envelope struct {
	Error         string `json:"error"`
	Kind          Kind   `json:"kind"`
	ProcessorCode string `json:"processor_code,omitempty"`
}

// Mapper is the single boundary that converts any error into a transport
// response. Production mode suppresses cause/stack details.
type Mapper struct {
	logger     *zap.Logger
	production bool
}

func NewMapper(logger *zap.Logger, production bool) *Mapper {
	return &Mapper{logger: logger, production: production}
}

// Respond writes the mapped response for err onto c and logs
// (method, path, app_id, error_kind, message), never payload fields.
func (m *Mapper) Respond(c *gin.Context, appID string, err error) {
	mapped := m.classify(err)

	m.logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("app_id", appID),
		zap.String("error_kind", string(mapped.Kind)),
		zap.String("message", mapped.Message),
	)

	c.JSON(mapped.Kind.Status(), envelope{
		Error:         mapped.Message,
		Kind:          mapped.Kind,
		ProcessorCode: mapped.ProcessorCode,
	})
}

// classify translates relational-driver errors and bare errors into the
// typed taxonomy so no internal schema/driver detail ever leaks.
func (m *Mapper) classify(err error) *Error {
	// Driver errors are inspected first, including ones wrapped inside an
	// Internal by the repository layer: a unique violation is a caller
	// conflict, not a server fault, no matter who wrapped it.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return Conflict("duplicate")
		case "23503": // foreign_key_violation
			return Validation("invalid reference")
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound("not found")
	}

	if e, ok := As(err); ok {
		if m.production && e.Kind == KindInternal {
			return Internal("internal error", nil)
		}
		return e
	}

	if m.production {
		return Internal("internal error", nil)
	}
	return Internal(err.Error(), err)
}

// Middleware aborts with a mapped response for any error attached to the
// gin context via c.Error, using the tenant-gated app_id if present.
func (m *Mapper) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		appID, _ := c.Get("app_id")
		appIDStr, _ := appID.(string)
		m.Respond(c, appIDStr, c.Errors.Last().Err)
	}
}
