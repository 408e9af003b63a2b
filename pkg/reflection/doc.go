// Package reflection implements a three-pass self-reflection text
// generation pipeline on top of an LLM completion capability.
//
// Each run makes exactly three sequential model calls: generate a first
// draft from a prompt template, critique the draft against a set of
// quality criteria, then produce a revised answer incorporating the
// critique. The revised text is returned and the full run (draft,
// critique, revision) is kept as the engine's history.
//
// # Pipeline
//
// Draft stage:
//   - The rendered prompt template is sent verbatim.
//
// Critique stage:
//   - The model is asked, as the template's persona, to produce
//     constructive suggestions for the draft, which is embedded in
//     <FIRST_RESULT></FIRST_RESULT> tags.
//   - With criteria: the criteria are rendered as a 1-indexed numbered
//     list and the model evaluates the draft against exactly those
//     points, in order.
//   - Without criteria: the model is asked to first define four
//     reflection points of its own for the task.
//
// Revision stage:
//   - The model edits the draft, given the critique in
//     <EXPERT_SUGGESTIONS></EXPERT_SUGGESTIONS> tags. With criteria, the
//     same numbered list is repeated as explicit editing instructions.
//
// Embedded texts are not escaped: a draft containing a literal
// </FIRST_RESULT> tag can confuse the model. This is a known limitation
// of the delimiter scheme.
//
// # Usage
//
//	cfg := llm.Config{
//	    Provider:    llm.ProviderGoogle,
//	    Model:       "gemini-1.5-flash",
//	    Temperature: 0.8,
//	}
//	engine, err := reflection.NewEngine(ctx, cfg, "You are a helpful assistant.")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := engine.GenerateText(ctx, reflection.PromptTemplate{
//	    Persona: "You are an expert linguist, specializing in translation",
//	    Task:    "translate the following text to English: ...",
//	}, []string{"accuracy", "fluency"})
//
// After a successful run, Engine.History returns the three stage outputs
// in order. Each successful run replaces the previous history; a failed
// run leaves it untouched.
//
// # Concurrency
//
// One engine serializes its runs: overlapping GenerateText calls on the
// same engine block each other (single-writer constraint on the history).
// Distinct engines are fully independent and may run concurrently.
//
// # Observability
//
// The engine exports OpenTelemetry metrics and traces:
//   - reflection.runs_total (counter): Completed runs by status
//   - reflection.run_duration_seconds (histogram): Full pipeline time
//   - reflection.stage_duration_seconds (histogram): Per-stage call time
//   - reflection.stage_errors_total (counter): Failures by stage
//
// Each run produces a reflection.generate span with one child span per
// stage, tagged with the run ID.
package reflection
