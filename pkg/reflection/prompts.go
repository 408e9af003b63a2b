package reflection

import (
	"fmt"
	"strings"
)

// criteriaList renders reflection criteria as a 1-indexed numbered list,
// one item per line, in input order. Empty items are numbered like any
// other. Returns "" for an empty slice.
func criteriaList(items []string) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return b.String()
}

// critiquePrompt builds the critique-stage request: act as the persona
// and produce constructive suggestions for the draft, which is embedded
// in <FIRST_RESULT></FIRST_RESULT> tags. With criteria the model
// evaluates the draft against exactly those numbered points; without,
// it first defines four reflection points of its own.
//
// The draft is embedded without escaping. A draft that itself contains
// a literal </FIRST_RESULT> tag can confuse the model; accepted
// limitation of the delimiter scheme.
func critiquePrompt(persona, task, draft string, items []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s and then give constructive criticism and helpful suggestions to improve the following task\n%s\n\n", persona, task)
	fmt.Fprintf(&b, "The first result delimited by XML tags <FIRST_RESULT></FIRST_RESULT> is the following:\n<FIRST_RESULT>\n%s\n</FIRST_RESULT>\n\n", draft)

	if len(items) > 0 {
		fmt.Fprintf(&b, "When writing suggestions, pay attention to whether there are ways to improve\n%s", criteriaList(items))
	} else {
		b.WriteString("When writing suggestions, first define four reflection points for this task and pay attention to whether there are ways to improve\n")
	}

	fmt.Fprintf(&b, "\nWrite a list of specific, helpful and constructive suggestions for improving the %s.\n", task)
	b.WriteString("Output only the suggestions and nothing else.")

	return b.String()
}

// revisionPrompt builds the revision-stage request: edit the draft
// (in <FIRST_RESULT> tags) taking into account the critique
// (in <EXPERT_SUGGESTIONS> tags). When criteria were given they are
// repeated as explicit editing instructions; otherwise the model relies
// on the critique text alone.
func revisionPrompt(task, draft, critique string, items []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Your task is to carefully read, then edit, a %s, taking into account a list of expert suggestions and constructive criticisms.\n\n", task)
	fmt.Fprintf(&b, "The first result delimited by XML tags <FIRST_RESULT></FIRST_RESULT> is the following:\n<FIRST_RESULT>\n%s\n</FIRST_RESULT>\n\n", draft)
	fmt.Fprintf(&b, "The expert suggestions are delimited by XML tags <EXPERT_SUGGESTIONS></EXPERT_SUGGESTIONS> as follows:\n<EXPERT_SUGGESTIONS>\n%s\n</EXPERT_SUGGESTIONS>\n\n", critique)

	fmt.Fprintf(&b, "Please take into account the expert suggestions when you are doing %s.", task)
	if len(items) > 0 {
		fmt.Fprintf(&b, " Edit the first result by ensuring:\n%s", criteriaList(items))
	}

	b.WriteString("\nOutput only the new result and nothing else")

	return b.String()
}
