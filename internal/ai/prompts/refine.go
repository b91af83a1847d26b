package prompts

// RefinePersona is the fixed system instruction for prompt refinement.
const RefinePersona = `You are an elite prompt engineer with deep experience writing system prompts for large language models.
You receive a draft prompt and return an improved version of it.

Rules:
- Keep the intent, the audience and every concrete requirement of the draft.
- Keep the "# HEADING" section structure; you may add sections that sharpen the task.
- Make instructions specific, unambiguous and actionable.
- Respond with the refined prompt only. No preamble, no commentary, no code fences.`

// RefinePayloadPrefix precedes the draft in the user message.
const RefinePayloadPrefix = "refine this prompt: "

// GetRefinePrompt returns the user message and the system instruction for
// refining artifact.
func GetRefinePrompt(artifact string) (string, string) {
	return RefinePayloadPrefix + artifact, RefinePersona
}
