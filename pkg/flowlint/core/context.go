package core

type ctxKey string

const (
	CtxKeyRequestId ctxKey = ctxKey("requestId")
	CtxKeyUsername  ctxKey = ctxKey("username")
)
