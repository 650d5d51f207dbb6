package tts

// Static voice equivalences between providers, both directions. Used when a
// job falls back from one provider to another and the caller wants "the
// same kind of voice" rather than a fresh auto-selection.
var equivalencePairs = [][2]string{
	{"pNInz6obpgDQGcFmaJgB", "en-US-Neural2-D"}, // Adam: deep male
	{"EXAVITQu4vr4xnSDxMaL", "en-US-Neural2-F"}, // Sarah: warm female
	{"ErXwobaYiN019PkySvjV", "en-US-Standard-B"}, // Antoni: neutral male
	{"MF3mGyEYCl7XYWbV9V6O", "de-DE-Wavenet-C"}, // Elli: neutral female
}

// staticEquivalent looks up the fixed cross-provider table.
func staticEquivalent(voiceID string) (string, bool) {
	for _, pair := range equivalencePairs {
		if pair[0] == voiceID {
			return pair[1], true
		}
		if pair[1] == voiceID {
			return pair[0], true
		}
	}
	return "", false
}

// EquivalentVoice finds the target provider's closest match for a voice.
// Identity is reflexive: asking for an equivalent on the voice's own
// provider returns the voice itself. The static table wins when it names a
// voice that exists on the target; otherwise the nearest match by language,
// then gender, then tier, then tone is chosen, with ties broken by lower
// price.
func (c *Catalog) EquivalentVoice(voice VoiceProfile, targetProvider string) (VoiceProfile, bool) {
	if voice.Provider == targetProvider {
		return voice, true
	}
	if id, ok := staticEquivalent(voice.ID); ok {
		if v, ok := c.Voice(targetProvider, id); ok {
			return v, true
		}
	}

	candidates := c.Voices(targetProvider, voice.Language)
	if len(candidates) == 0 {
		return VoiceProfile{}, false
	}

	best := candidates[0]
	bestScore := matchScore(voice, best)
	for _, cand := range candidates[1:] {
		score := matchScore(voice, cand)
		if score > bestScore || (score == bestScore && cand.PricePer1K < best.PricePer1K) {
			best, bestScore = cand, score
		}
	}
	return best, true
}

// matchScore weights attributes by importance: language dominates, then
// gender, tier proximity, tone.
func matchScore(want, have VoiceProfile) int {
	score := 0
	if sameLanguage(want.Language, have.Language) {
		score += 1000
	}
	if want.Gender == have.Gender {
		score += 100
	}
	diff := tierRank[want.Tier] - tierRank[have.Tier]
	if diff < 0 {
		diff = -diff
	}
	score += 30 - 10*diff
	if want.Tone != "" && want.Tone == have.Tone {
		score += 5
	}
	return score
}
