//nolint:errcheck,gocognit,gocyclo,nestif,gocritic,godot,wrapcheck,gosec,revive,goprintffuncname,modernize // E2E test runner uses relaxed linting
package main

import (
	"context"
	"fmt"
	"net/http"
)

// runTTSCatalogTests exercises the provider, voice, and cost endpoints.
// These are served from the embedded catalog, so they work without any
// provider credentials.
func (r *E2ERunner) runTTSCatalogTests(ctx context.Context) {
	r.runTestWithInfo("List TTS Providers", "GET /v1/tts-providers - both providers with voices", func() error {
		providers, err := r.client.Providers(ctx)
		if err != nil {
			return err
		}
		if len(providers) < 2 {
			return fmt.Errorf("expected at least 2 providers, got %d", len(providers))
		}
		seen := make(map[string]bool)
		for _, p := range providers {
			seen[p.ID] = true
			if p.VoiceCount == 0 {
				return fmt.Errorf("provider %s reports no voices", p.ID)
			}
			if p.MaxBreakS <= 0 {
				return fmt.Errorf("provider %s reports no break support", p.ID)
			}
		}
		for _, id := range []string{"google", "elevenlabs"} {
			if !seen[id] {
				return fmt.Errorf("provider %s missing from listing", id)
			}
		}
		return nil
	})

	r.runTestWithInfo("List Voices", "GET /v1/tts-providers/google/voices?language=en-US", func() error {
		status, voices, err := r.client.Voices(ctx, "google", "en-US")
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("voices returned status %d", status)
		}
		if len(voices) == 0 {
			return fmt.Errorf("no en-US voices returned")
		}
		for _, v := range voices {
			if v.Language != "en-US" {
				return fmt.Errorf("voice %s has language %s, expected en-US", v.ID, v.Language)
			}
			if v.ID == "" || v.Tier == "" {
				return fmt.Errorf("voice entry missing id or tier: %+v", v)
			}
		}
		return nil
	})

	r.runTestWithInfo("Unknown Provider", "GET /v1/tts-providers/nonexistent/voices - expect 404", func() error {
		status, _, err := r.client.Voices(ctx, "nonexistent", "")
		if err != nil {
			return err
		}
		if status != http.StatusNotFound {
			return fmt.Errorf("expected status 404, got %d", status)
		}
		return nil
	})

	r.runTestWithInfo("Cost Comparison", "GET /v1/tts-cost-comparison - quotes and a recommendation", func() error {
		text := "Hello from the end to end test run."
		status, cmp, err := r.client.CompareCosts(ctx, text, "en-US")
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("cost comparison returned status %d", status)
		}
		if cmp.Characters != len([]rune(text)) {
			return fmt.Errorf("expected %d characters, got %d", len([]rune(text)), cmp.Characters)
		}
		if len(cmp.Quotes) < 2 {
			return fmt.Errorf("expected quotes from both providers, got %d", len(cmp.Quotes))
		}
		if cmp.Recommended == "" {
			return fmt.Errorf("comparison missing recommendation")
		}
		cheapest := cmp.Quotes[0]
		for _, q := range cmp.Quotes[1:] {
			if q.AmountUSD < cheapest.AmountUSD {
				cheapest = q
			}
		}
		if cmp.Recommended != cheapest.Provider {
			return fmt.Errorf("recommended %s but cheapest quote is %s ($%.6f)",
				cmp.Recommended, cheapest.Provider, cheapest.AmountUSD)
		}
		return nil
	})

	r.runTestWithInfo("Cost Comparison Unsupported Language", "GET /v1/tts-cost-comparison?language=xx - expect 400", func() error {
		status, _, err := r.client.CompareCosts(ctx, "hello", "xx")
		if err != nil {
			return err
		}
		if status != http.StatusBadRequest {
			return fmt.Errorf("expected status 400, got %d", status)
		}
		return nil
	})

	r.runTestWithInfo("Cost Comparison Missing Text", "GET /v1/tts-cost-comparison without text - expect rejection", func() error {
		status, body, err := r.client.get(ctx, "/v1/tts-cost-comparison?language=en-US")
		if err != nil {
			return err
		}
		if status < 400 || status >= 500 {
			return fmt.Errorf("expected a client error, got %d: %s", status, problemDetail(body))
		}
		return nil
	})
}
