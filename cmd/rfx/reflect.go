package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	reflectPersona      string
	reflectTask         string
	reflectContext      string
	reflectOutputFormat string
	reflectCriteria     []string
	reflectShowStages   bool
	reflectTimeout      time.Duration
)

// reflectCmd runs a task through the draft-critique-revise pipeline
var reflectCmd = &cobra.Command{
	Use:   "reflect [file]",
	Short: "Run a task through the reflection pipeline",
	Long: `Run a task through the reflectd draft-critique-revise pipeline.

The task description comes from --task; content from a file or stdin is
appended to it, so the description can introduce the material being worked
on. Criteria guide the critique stage; without any, the model defines its
own reflection points.

Examples:
  # Translate a paragraph from a file, critiquing as a linguist
  rfx reflect --persona "an expert linguist, specializing in translation" \
    --task "translation from English to French of the following paragraph:" \
    --criteria accuracy --criteria fluency \
    paragraph.txt

  # Read the material from stdin
  cat essay.md | rfx reflect --persona "a patient editor" --task "an edit of the following essay:" -

  # Show the intermediate draft and critique on stderr
  rfx reflect --persona "a chef" --task "a recipe for enchiladas" --show-stages`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReflect,
}

func init() {
	reflectCmd.Flags().StringVar(&reflectPersona, "persona", "", "role the critique is written from (required)")
	reflectCmd.Flags().StringVar(&reflectTask, "task", "", "task description; file or stdin content is appended")
	reflectCmd.Flags().StringVar(&reflectContext, "context", "", "additional context appended to the prompt")
	reflectCmd.Flags().StringVar(&reflectOutputFormat, "output-format", "", "output format instruction appended to the prompt")
	reflectCmd.Flags().StringArrayVar(&reflectCriteria, "criteria", nil, "evaluation criterion for the critique (repeatable)")
	reflectCmd.Flags().BoolVar(&reflectShowStages, "show-stages", false, "print the draft and critique to stderr")
	reflectCmd.Flags().DurationVar(&reflectTimeout, "timeout", 5*time.Minute, "request timeout (three model calls run server-side)")

	if err := reflectCmd.MarkFlagRequired("persona"); err != nil {
		panic(err)
	}
}

// ReflectRequest matches internal/http/types.go ReflectRequest
type ReflectRequest struct {
	Persona      string   `json:"persona"`
	Task         string   `json:"task"`
	Context      string   `json:"context,omitempty"`
	OutputFormat string   `json:"output_format,omitempty"`
	Criteria     []string `json:"criteria,omitempty"`
}

// ReflectResponse matches internal/http/types.go ReflectResponse
type ReflectResponse struct {
	ID         string `json:"id"`
	Result     string `json:"result"`
	Draft      string `json:"draft"`
	Critique   string `json:"critique"`
	DurationMS int64  `json:"duration_ms"`
}

// runReflect handles the reflect command
func runReflect(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error

	// Read appended material from file or stdin
	if len(args) == 1 {
		if args[0] == "-" {
			content, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read from stdin: %w", err)
			}
		} else {
			content, err = os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", args[0], err)
			}
		}
	}

	task := combineTask(reflectTask, string(content))
	if task == "" {
		return fmt.Errorf("no task to reflect on (pass --task, a file, or stdin)")
	}

	reqBody := ReflectRequest{
		Persona:      reflectPersona,
		Task:         task,
		Context:      reflectContext,
		OutputFormat: reflectOutputFormat,
		Criteria:     reflectCriteria,
	}

	resp, err := doReflect(serverURL, reqBody, reflectTimeout)
	if err != nil {
		return err
	}

	if reflectShowStages {
		fmt.Fprintf(os.Stderr, "--- draft ---\n%s\n\n--- critique ---\n%s\n\n--- revision ---\n", resp.Draft, resp.Critique)
	}

	// Output the revised result to stdout
	fmt.Println(resp.Result)

	fmt.Fprintf(os.Stderr, "\n[rfx] run %s completed in %dms\n", resp.ID, resp.DurationMS)

	return nil
}

// combineTask joins the task description and appended material. Either part
// may be empty; both empty yields the empty string.
func combineTask(task, content string) string {
	task = strings.TrimSpace(task)
	content = strings.TrimSpace(content)

	switch {
	case task == "":
		return content
	case content == "":
		return task
	default:
		return task + "\n" + content
	}
}

// doReflect posts the request to the reflect endpoint.
func doReflect(baseURL string, reqBody ReflectRequest, timeout time.Duration) (*ReflectResponse, error) {
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/reflect", baseURL)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: timeout,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var reflectResp ReflectResponse
	if err := json.NewDecoder(resp.Body).Decode(&reflectResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &reflectResp, nil
}
