package genai

import (
	"fmt"
	"strings"
)

// contextInstruction is the canned prompt fragment for one translation
// context tag.
type contextInstruction struct {
	Instruction string
	Terminology string
	Tone        string
}

// contextInstructions maps translation context tags to their prompt
// fragments. Unknown or empty tags fall back to casual.
var contextInstructions = map[string]contextInstruction{
	"spiritual": {
		Instruction: "Preserve the spiritual, uplifting, and compassionate tone. Maintain motivational language and keep religious or spiritual terminology accurate. Focus on emotional resonance.",
		Terminology: "Use respectful spiritual language, preserve metaphors and inspirational phrases.",
		Tone:        "Warm, encouraging, and reverent.",
	},
	"legal": {
		Instruction: "Keep the formal legal register and ensure precise terminology. Maintain professional tone and accuracy of legal concepts. Avoid ambiguity.",
		Terminology: "Use exact legal terminology, preserve technical precision.",
		Tone:        "Formal, precise, and authoritative.",
	},
	"marketing": {
		Instruction: "Adapt for marketing purposes: make it persuasive, engaging, and action-oriented. Preserve selling points and emotional appeals.",
		Terminology: "Use compelling marketing language, maintain call-to-action elements.",
		Tone:        "Persuasive, engaging, and dynamic.",
	},
	"scientific": {
		Instruction: "Maintain scientific accuracy and technical precision. Keep technical terms consistent and preserve logical flow.",
		Terminology: "Use precise scientific vocabulary, maintain technical accuracy.",
		Tone:        "Objective, precise, and analytical.",
	},
	"educational": {
		Instruction: "Make it clear and educational. Ensure concepts are well explained and accessible to the learning audience.",
		Terminology: "Use clear educational language, define complex terms.",
		Tone:        "Clear, instructive, and supportive.",
	},
	"news": {
		Instruction: "Maintain journalistic objectivity and factual accuracy. Keep the informational tone and news-style structure.",
		Terminology: "Use professional news language, maintain factual precision.",
		Tone:        "Objective, informative, and professional.",
	},
	"casual": {
		Instruction: "Maintain natural conversational tone. Keep it friendly and accessible while preserving the speaker's personality.",
		Terminology: "Use natural conversational language, maintain personal style.",
		Tone:        "Natural, friendly, and conversational.",
	},
}

func instructionFor(context string) contextInstruction {
	if ci, ok := contextInstructions[context]; ok {
		return ci
	}
	return contextInstructions["casual"]
}

// buildPostEditPrompt asks the model to clean a timed script without
// touching its timing.
func buildPostEditPrompt(script string) string {
	var b strings.Builder
	b.WriteString("Clean up this timed speech transcript for use as a narration script.\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("1. Fix punctuation, capitalization, and obvious recognition errors.\n")
	b.WriteString("2. Keep every [h:mm:ss] timestamp EXACTLY as it is and in the same order.\n")
	b.WriteString("3. Keep every pause marker (" + "•" + " and " + "••" + ") exactly where it is.\n")
	b.WriteString("4. Never reorder, add, or remove lines; never summarize.\n")
	b.WriteString("5. Output only the cleaned script, nothing else.\n\n")
	b.WriteString("TRANSCRIPT:\n")
	b.WriteString(script)
	return b.String()
}

// TranslateParams carries the request-level translation parameters into the
// prompt.
type TranslateParams struct {
	TargetLanguage string
	Context        string
	Audience       string
	Tone           string
	Quality        Quality
}

// buildTranslatePrompt builds the context-aware translation prompt. The
// timing rules mirror what the synthesizer downstream depends on.
func buildTranslatePrompt(script string, p TranslateParams) string {
	ci := instructionFor(p.Context)
	audience := p.Audience
	if audience == "" {
		audience = "general public"
	}
	tone := p.Tone
	if tone == "" {
		tone = "neutral"
	}
	context := p.Context
	if context == "" {
		context = "casual"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Translate this timed script into %s.\n\n", p.TargetLanguage)
	b.WriteString("CRITICAL: this is a TIMED SCRIPT for audio synthesis. Timing is sacred.\n\n")
	b.WriteString("TRANSLATION CONTEXT:\n")
	fmt.Fprintf(&b, "- Content type: %s\n", context)
	fmt.Fprintf(&b, "- Target audience: %s\n", audience)
	fmt.Fprintf(&b, "- Desired tone: %s\n", tone)
	fmt.Fprintf(&b, "- Special instruction: %s\n", ci.Instruction)
	fmt.Fprintf(&b, "- Terminology: %s\n", ci.Terminology)
	fmt.Fprintf(&b, "- Mood: %s\n\n", ci.Tone)
	b.WriteString("TIMING PRESERVATION RULES:\n")
	b.WriteString("1. Preserve EVERY [h:mm:ss] timestamp exactly; each must appear exactly once.\n")
	b.WriteString("2. The translated text must fit the same time slots.\n")
	b.WriteString("3. If a translation runs long, split the line but keep the timestamps.\n")
	b.WriteString("4. If a translation runs short, adjacent lines may be merged onto the earlier timestamp.\n")
	b.WriteString("5. Pass pause markers (" + "•" + " and " + "••" + ") through untranslated.\n\n")
	fmt.Fprintf(&b, "QUALITY: %s\n\n", strings.ToUpper(string(p.Quality)))
	b.WriteString("SOURCE SCRIPT:\n")
	b.WriteString(script)
	fmt.Fprintf(&b, "\n\nTRANSLATED %s SCRIPT:", strings.ToUpper(p.TargetLanguage))
	return b.String()
}
