package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the caller identity forwarded by the admin proxy.
type RequestData struct {
	AdminUser string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// AdminUser returns the forwarded admin identity or "".
func AdminUser(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.AdminUser
	}
	return ""
}
