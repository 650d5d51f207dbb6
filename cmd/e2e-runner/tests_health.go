//nolint:errcheck,gocognit,gocyclo,nestif,gocritic,godot,wrapcheck,gosec,revive,goprintffuncname,modernize // E2E test runner uses relaxed linting
package main

import (
	"context"
	"fmt"
)

// runHealthTests runs health check and API surface tests.
func (r *E2ERunner) runHealthTests(ctx context.Context) {
	r.runTestWithInfo("Health Check", "GET /health - verify API is responding", func() error {
		return r.client.HealthCheck(ctx)
	})

	r.runTestWithInfo("Health Components", "GET /health - database ok, runner up, TTS providers ready", func() error {
		health, err := r.client.Health(ctx)
		if err != nil {
			return err
		}
		if health.Status != "healthy" {
			return fmt.Errorf("expected status healthy, got %q", health.Status)
		}
		if health.Version == "" {
			return fmt.Errorf("health response missing version")
		}
		if health.Components.Database.Status != "ok" {
			return fmt.Errorf("database component is %q", health.Components.Database.Status)
		}
		if health.Components.Runner == nil || !health.Components.Runner.Running {
			return fmt.Errorf("runner component not running")
		}
		if health.Components.TTS.ProvidersReady < 2 {
			return fmt.Errorf("expected at least 2 TTS providers, got %d", health.Components.TTS.ProvidersReady)
		}
		return nil
	})

	r.runTestWithInfo("OpenAPI Spec", "GET /openapi.json - generated spec lists the job endpoints", func() error {
		spec, err := r.client.OpenAPISpec(ctx)
		if err != nil {
			return err
		}
		if _, ok := spec["openapi"]; !ok {
			return fmt.Errorf("spec missing openapi version field")
		}
		paths, ok := spec["paths"].(map[string]interface{})
		if !ok {
			return fmt.Errorf("spec missing paths")
		}
		for _, path := range []string{"/v1/transcribe", "/v1/dub", "/v1/jobs", "/v1/tts-providers"} {
			if _, ok := paths[path]; !ok {
				return fmt.Errorf("spec missing path %s", path)
			}
		}
		return nil
	})
}
