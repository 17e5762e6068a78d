package governor

import "encoding/json"

type searchResource struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

type rateLimitResponse struct {
	Resources struct {
		Search searchResource `json:"search"`
	} `json:"resources"`
}

// parseSearchResource reads the search resource specifically out of a
// /rate_limit response body, not core — per auth_manager.py's
// check_rate_limit, which the distilled spec omitted.
func parseSearchResource(body []byte) (searchResource, bool) {
	var r rateLimitResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return searchResource{}, false
	}
	if r.Resources.Search.Limit == 0 && r.Resources.Search.Remaining == 0 {
		return searchResource{}, false
	}
	return r.Resources.Search, true
}
