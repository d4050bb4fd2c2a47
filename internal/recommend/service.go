package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"recipebox/internal/recipe"
)

// maxPromptRecipes caps the number of names sent to the model.
const maxPromptRecipes = 500

// ErrInvalidReply is returned when the model reply holds no JSON array of names.
var ErrInvalidReply = errors.New("invalid JSON from LLM")

// Catalogue lists the recipes to recommend from.
type Catalogue interface {
	ListRecipes(ctx context.Context) ([]recipe.Recipe, error)
}

// Completer sends a prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMError wraps a failed model call.
type LLMError struct {
	Err error
}

func (e *LLMError) Error() string { return "LLM request failed: " + e.Err.Error() }
func (e *LLMError) Unwrap() error { return e.Err }

// Service recommends recipe names. With a nil Completer only scoring is used.
type Service struct {
	catalogue Catalogue
	llm       Completer
}

// NewService creates a new Service over the catalogue. llm may be nil.
func NewService(catalogue Catalogue, llm Completer) *Service {
	return &Service{catalogue: catalogue, llm: llm}
}

// Recommend returns up to Limit recipe names. scoreOnly forces the scoring variant.
func (s *Service) Recommend(ctx context.Context, liked, disliked []string, scoreOnly bool) ([]string, error) {
	recipes, err := s.catalogue.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	if s.llm == nil || scoreOnly {
		return Rank(recipes, liked, disliked, Limit), nil
	}
	if len(recipes) == 0 {
		return []string{}, nil
	}

	names := make([]string, 0, len(recipes))
	for _, r := range recipes {
		names = append(names, r.Name)
	}

	prompt, err := buildPrompt(liked, disliked, names)
	if err != nil {
		return nil, err
	}
	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, &LLMError{Err: err}
	}

	picked, err := parseNames(reply)
	if err != nil {
		return nil, err
	}
	return verify(picked, names), nil
}

func buildPrompt(liked, disliked, names []string) (string, error) {
	if len(names) > maxPromptRecipes {
		names = names[:maxPromptRecipes]
	}
	list, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("failed to encode recipe names: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a recipe recommender.\n\n")
	fmt.Fprintf(&sb, "The user likes: %s.\n", strings.Join(liked, ", "))
	fmt.Fprintf(&sb, "The user dislikes: %s.\n\n", strings.Join(disliked, ", "))
	fmt.Fprintf(&sb, "Only recommend %d recipe titles that exactly match the following list:\n", Limit)
	sb.Write(list)
	sb.WriteString("\n\nReturn them as a JSON array:\n[\n  \"Recipe 1\",\n  \"Recipe 2\",\n  ...\n]\n")
	return sb.String(), nil
}

// parseNames extracts the outermost JSON array, which models often wrap in prose or fences.
func parseNames(reply string) ([]string, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start == -1 || end == -1 || start > end {
		return nil, ErrInvalidReply
	}

	var names []string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &names); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	return names, nil
}

// verify drops names that are not in the catalogue and duplicates.
func verify(picked, names []string) []string {
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	out := []string{}
	seen := map[string]struct{}{}
	for _, p := range picked {
		if _, ok := known[p]; !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
