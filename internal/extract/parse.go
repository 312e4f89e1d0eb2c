package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// Result is the tagged outcome of parsing model output: either a list of
// candidate claims, or the raw text that could not be parsed.
type Result struct {
	Claims    []model.CandidateClaim
	Malformed bool
	Raw       string
	Err       error // Parse error when Malformed
}

// OK returns a well-formed result
func OK(claims []model.CandidateClaim) Result {
	return Result{Claims: claims}
}

// Malformed returns a result carrying unparseable text
func Malformed(raw string, err error) Result {
	return Result{Malformed: true, Raw: raw, Err: err}
}

// Recover turns a malformed result into the parse-failure sentinel
func (r Result) Recover() []model.CandidateClaim {
	if r.Malformed {
		return []model.CandidateClaim{FailedSentinel()}
	}
	return r.Claims
}

// rawClaim accepts the few key spellings models drift between
type rawClaim struct {
	Claim       string `json:"claim"`
	ClaimText   string `json:"claim_text"`
	Explanation string `json:"explanation"`
}

func (r rawClaim) candidate() model.CandidateClaim {
	text := r.Claim
	if text == "" {
		text = r.ClaimText
	}
	return model.CandidateClaim{
		Claim:       strings.TrimSpace(text),
		Explanation: strings.TrimSpace(r.Explanation),
	}
}

// Parse interprets model output as a JSON array of claims. It tolerates
// markdown code fences, prose around the array, and a {"claims": [...]} wrapper.
func Parse(raw string) Result {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" {
		return Malformed(raw, fmt.Errorf("empty response"))
	}

	items, err := decodeList(text)
	if err != nil {
		// Try to extract JSON array if embedded in prose
		startIdx := strings.Index(text, "[")
		endIdx := strings.LastIndex(text, "]")
		if startIdx < 0 || endIdx <= startIdx {
			return Malformed(raw, fmt.Errorf("no JSON array in response: %w", err))
		}
		items, err = decodeList(text[startIdx : endIdx+1])
		if err != nil {
			return Malformed(raw, fmt.Errorf("decode embedded array: %w", err))
		}
	}

	claims := make([]model.CandidateClaim, 0, len(items))
	for _, item := range items {
		claims = append(claims, item.candidate())
	}
	return OK(claims)
}

func decodeList(text string) ([]rawClaim, error) {
	var items []rawClaim
	if err := json.Unmarshal([]byte(text), &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Claims *[]rawClaim `json:"claims"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Claims == nil {
		return nil, fmt.Errorf("object has no claims field")
	}
	return *wrapped.Claims, nil
}

// stripFences removes a surrounding ``` or ```json code fence
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.Index(text, "\n"); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
