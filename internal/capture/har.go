package capture

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/loadscribe/loadscribe/internal/models"
)

// HAR mirrors the HTTP Archive shape this parser consumes: {log:{entries:[...]}}.
type HAR struct {
	Log HARLog `json:"log"`
}

type HARLog struct {
	Entries []HAREntry `json:"entries"`
}

type HAREntry struct {
	Time     float64     `json:"time"`
	Request  HARRequest  `json:"request"`
	Response HARResponse `json:"response"`
}

type HARRequest struct {
	Method      string       `json:"method"`
	URL         string       `json:"url"`
	Headers     []HARNameVal `json:"headers"`
	QueryString []HARNameVal `json:"queryString"`
	PostData    *HARPostData `json:"postData,omitempty"`
}

type HARResponse struct {
	Status  int          `json:"status"`
	Headers []HARNameVal `json:"headers"`
}

type HARNameVal struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type HARPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// ParseHAR converts a capture document into an ordered operation list.
// SequenceIndex follows file order. An entry without postData yields an
// operation with an empty body.
func ParseHAR(data []byte) (*Result, error) {
	var har HAR
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, &models.MalformedInputError{Source: "har", Reason: "document is not valid JSON", Cause: err}
	}
	if har.Log.Entries == nil {
		return nil, &models.MalformedInputError{Source: "har", Reason: "missing log.entries"}
	}

	result := &Result{Kind: KindHAR}
	var totalLatency float64
	var timed int

	for i, entry := range har.Log.Entries {
		op := models.Operation{
			Method:        strings.ToUpper(entry.Request.Method),
			SequenceIndex: i,
			LatencyMS:     entry.Time,
		}

		u, err := url.Parse(entry.Request.URL)
		if err != nil || u.Host == "" {
			op.Path = entry.Request.URL
		} else {
			op.Host = u.Hostname()
			op.Path = u.Path
			if op.Path == "" {
				op.Path = "/"
			}
			if result.BaseURL == "" {
				result.BaseURL = u.Scheme + "://" + u.Host
			}
		}

		for _, h := range entry.Request.Headers {
			op.RequestHeaders = append(op.RequestHeaders, models.Header{Name: h.Name, Value: h.Value})
		}
		for _, q := range entry.Request.QueryString {
			op.QueryParameters = append(op.QueryParameters, models.Param{Name: q.Name, Value: q.Value})
		}
		if len(op.QueryParameters) == 0 && u != nil {
			// Some recorders leave queryString empty and keep params in the URL.
			for _, pair := range strings.Split(u.RawQuery, "&") {
				if pair == "" {
					continue
				}
				name, value, _ := strings.Cut(pair, "=")
				name, _ = url.QueryUnescape(name)
				value, _ = url.QueryUnescape(value)
				op.QueryParameters = append(op.QueryParameters, models.Param{Name: name, Value: value})
			}
		}

		if pd := entry.Request.PostData; pd != nil && pd.Text != "" {
			op.RequestBody = &models.RequestBody{Literal: pd.Text, MediaType: pd.MimeType}
		}

		if entry.Response.Status > 0 {
			op.ExpectedStatus = []int{entry.Response.Status}
		}
		if entry.Time > 0 {
			totalLatency += entry.Time
			timed++
		}

		op.Name = fmt.Sprintf("%s %s", op.Method, op.Path)
		result.Operations = append(result.Operations, op)
	}

	if timed > 0 {
		result.AvgLatencyMS = totalLatency / float64(timed)
	}
	return result, nil
}
