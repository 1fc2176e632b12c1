package cache

// ErrorHandler observes backend failures. Implementations must return
// promptly and must not retry; they may be called from any goroutine.
//
// Every err passed in is a *CacheBackendError.
type ErrorHandler interface {
	OnGetError(key string, err error)
	OnPutError(key string, value any, err error)
	OnEvictError(key string, err error)
	OnClearError(err error)
}

// LoggingErrorHandler logs each failure once at error level and swallows it.
type LoggingErrorHandler struct {
	logger Logger
}

// NewLoggingErrorHandler returns an ErrorHandler that writes to logger, or to
// slog.Default() when logger is nil.
func NewLoggingErrorHandler(logger Logger) *LoggingErrorHandler {
	return &LoggingErrorHandler{logger: loggerOrDefault(logger)}
}

func (h *LoggingErrorHandler) OnGetError(key string, err error) {
	h.log(OpGet, key, nil, err)
}

func (h *LoggingErrorHandler) OnPutError(key string, value any, err error) {
	h.log(OpPut, key, value, err)
}

func (h *LoggingErrorHandler) OnEvictError(key string, err error) {
	h.log(OpEvict, key, nil, err)
}

func (h *LoggingErrorHandler) OnClearError(err error) {
	h.log(OpClear, "", nil, err)
}

func (h *LoggingErrorHandler) log(op, key string, value any, err error) {
	kv := []any{"op", op}
	cause := err
	if be, ok := err.(*CacheBackendError); ok {
		kv = append(kv, "cache", be.Cache)
		cause = be.Err
	}
	if key != "" {
		kv = append(kv, "key", key)
	}
	if op == OpPut {
		kv = append(kv, "value", value)
	}
	kv = append(kv, "error", cause)
	h.logger.Error("cache backend operation failed", kv...)
}

// isolate runs a backend call and routes its failure to the handler.
// It reports whether the call succeeded.
func (c *Cache) isolate(op, key string, value any, call func() error) bool {
	err := call()
	if err == nil {
		return true
	}
	be := &CacheBackendError{Op: op, Cache: c.cfg.Name, Key: key, Err: err}
	switch op {
	case OpGet:
		c.errors.OnGetError(key, be)
	case OpPut:
		c.errors.OnPutError(key, value, be)
	case OpEvict:
		c.errors.OnEvictError(key, be)
	default:
		c.errors.OnClearError(be)
	}
	return false
}
