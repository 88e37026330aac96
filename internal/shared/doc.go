// Package shared holds helpers used across packages that belong to no single
// layer. Today that is the testutil subpackage, which captures slog output in
// tests:
//
//	logger, handler := testutil.NewTestLogger(t)
//	svc := services.NewHealthService("dev", queue, logger)
//	...
//	assert.True(t, handler.ContainsMessage("health check"))
package shared
