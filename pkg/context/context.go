package context

import "context"

type ContextKey string

var (
	RequestIDKey = ContextKey("X-Request-Id")
	MethodKey    = ContextKey("X-Method")
	RouteKey     = ContextKey("X-Route")
	RemoteIPKey  = ContextKey("X-Remote-Ip")
	EndpointKey  = ContextKey("X-Endpoint")
	SubjectKey   = ContextKey("X-Subject")
)

func set(ctx context.Context, key ContextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func get(ctx context.Context, key ContextKey) string {
	value, ok := ctx.Value(key).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return set(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	return get(ctx, RequestIDKey)
}

func SetMethod(ctx context.Context, method string) context.Context {
	return set(ctx, MethodKey, method)
}

func GetMethod(ctx context.Context) string {
	return get(ctx, MethodKey)
}

func SetRoute(ctx context.Context, route string) context.Context {
	return set(ctx, RouteKey, route)
}

func GetRoute(ctx context.Context) string {
	return get(ctx, RouteKey)
}

func SetRemoteIP(ctx context.Context, ip string) context.Context {
	return set(ctx, RemoteIPKey, ip)
}

func GetRemoteIP(ctx context.Context) string {
	return get(ctx, RemoteIPKey)
}

// SetEndpoint records the registered endpoint path (e.g. /v1/kpler_trade) serving the request.
func SetEndpoint(ctx context.Context, endpoint string) context.Context {
	return set(ctx, EndpointKey, endpoint)
}

func GetEndpoint(ctx context.Context) string {
	return get(ctx, EndpointKey)
}

// SetSubject records the authenticated admin subject.
func SetSubject(ctx context.Context, subject string) context.Context {
	return set(ctx, SubjectKey, subject)
}

func GetSubject(ctx context.Context) string {
	return get(ctx, SubjectKey)
}
