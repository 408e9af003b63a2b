package reflection

// PromptTemplate composes a persona, a task, optional context, and an
// optional output-format instruction into a single prompt string.
//
// PromptTemplate is a value object: construct it with the fields you
// need and do not mutate it afterwards.
type PromptTemplate struct {
	// Persona is the role framing, e.g. "You are an expert linguist,
	// specializing in translation".
	Persona string

	// Task describes what to produce.
	Task string

	// Context is optional supporting material for the task.
	Context string

	// OutputFormat optionally names the desired output shape, e.g. "JSON".
	OutputFormat string
}

// Render returns the prompt text: the exact concatenation
// Persona + Task + Context + OutputFormat.
//
// No separators are inserted between the fields. Prompt-for-prompt
// compatibility depends on this join staying delimiter-free, so callers
// carry any spacing they need inside the fields themselves.
func (p PromptTemplate) Render() string {
	return p.Persona + p.Task + p.Context + p.OutputFormat
}

// Validate requires a non-empty Persona and Task. Empty Context and
// OutputFormat are valid and contribute nothing to Render.
func (p PromptTemplate) Validate() error {
	if p.Persona == "" {
		return ErrMissingPersona
	}
	if p.Task == "" {
		return ErrMissingTask
	}
	return nil
}
