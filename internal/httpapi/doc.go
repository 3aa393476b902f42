// Package httpapi exposes accounts, credentials and tasks over HTTP+JSON.
//
// Routes:
//
//	POST   /register      {name, email, password}      201 {access_token, refresh_token}
//	POST   /login         {email, password}            200 {access_token, refresh_token}
//	POST   /refresh       Bearer <refresh>             200 {token}
//	POST   /logout        Bearer <access> + {refresh_token}
//	DELETE /me            {password}, authenticated    204
//	GET    /todos         ?page=&limit=, authenticated 200 {data, page, limit, total}
//	POST   /todos         {title, description}         201
//	PATCH  /todos/{id}    {title?, description?}       200
//	DELETE /todos/{id}                                 204
//	GET    /healthz
//	GET    /metrics       when a metrics handler is configured
//
// Every error body is {"message": ...}. With a RateLimiter configured, auth
// and task routes are throttled per subject or client IP; with a LoginLockout,
// repeated failed logins for one email are refused with 429.
package httpapi
