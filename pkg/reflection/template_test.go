package reflection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptTemplateRender(t *testing.T) {
	tests := []struct {
		name     string
		template PromptTemplate
		want     string
	}{
		{
			name: "all four fields",
			template: PromptTemplate{
				Persona:      "You are a poet.",
				Task:         "Write about rain.",
				Context:      "It is autumn.",
				OutputFormat: "Use haiku form.",
			},
			want: "You are a poet.Write about rain.It is autumn.Use haiku form.",
		},
		{
			name: "empty context and output format contribute nothing",
			template: PromptTemplate{
				Persona: "You are a poet.",
				Task:    "Write about rain.",
			},
			want: "You are a poet.Write about rain.",
		},
		{
			name: "no separators inserted between fields",
			template: PromptTemplate{
				Persona: "A",
				Task:    "B",
				Context: "C",
			},
			want: "ABC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.template.Render())
		})
	}
}

func TestPromptTemplateValidate(t *testing.T) {
	valid := PromptTemplate{Persona: "You are a translator", Task: "translate this"}
	require.NoError(t, valid.Validate())

	missingPersona := PromptTemplate{Task: "translate this"}
	err := missingPersona.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPersona))

	missingTask := PromptTemplate{Persona: "You are a translator"}
	err = missingTask.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingTask))
}
