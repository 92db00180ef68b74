package anyrouter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/qirune/anyrouter-checkin/internal/domain"
)

// ParseVerdict interprets a sign-in response the way the service's own web
// console does. HTTP 200 with a body where ret==1, code==0, or success is
// truthy counts as accepted. Deployments differ in which field they set, so
// all three are checked.
func ParseVerdict(status int, body []byte) domain.APIVerdict {
	if status != http.StatusOK {
		return domain.APIVerdict{Message: fmt.Sprintf("HTTP %d", status)}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		// Some gateway layers answer with plain text. A body mentioning
		// "success" is accepted, anything else is unreadable.
		if strings.Contains(strings.ToLower(string(body)), "success") {
			return domain.APIVerdict{Success: true}
		}
		return domain.APIVerdict{Message: "Invalid response format"}
	}

	if numberEquals(payload["ret"], 1) || numberEquals(payload["code"], 0) || truthy(payload["success"]) {
		return domain.APIVerdict{Success: true}
	}

	return domain.APIVerdict{Message: rejectionMessage(payload)}
}

// numberEquals reports whether a decoded JSON value equals the given number.
// Booleans compare as 1 and 0, matching the loose equality the console's
// scripts rely on.
func numberEquals(v any, want float64) bool {
	switch n := v.(type) {
	case float64:
		return n == want
	case bool:
		if n {
			return want == 1
		}
		return want == 0
	default:
		return false
	}
}

// truthy applies script-style truthiness to a decoded JSON value: absent,
// false, zero, empty string, and empty containers are all false.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return false
	}
}

func rejectionMessage(payload map[string]any) string {
	for _, key := range []string{"msg", "message"} {
		if v, ok := payload[key]; ok {
			return stringify(v)
		}
	}
	return "Unknown error"
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
