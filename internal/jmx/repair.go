package jmx

import (
	"strings"

	"github.com/loadscribe/loadscribe/internal/models"
	"go.uber.org/zap"
)

// Markers used to detect structural elements that may already be present.
const (
	summaryListenerMarker  = `guiclass="SummaryReport"`
	detailedListenerMarker = `guiclass="ViewResultsFullVisualizer"`
	cookieManagerMarker    = "<CookieManager"
	cacheManagerMarker     = "<CacheManager"
	csvDataSetMarker       = "<CSVDataSet"
	samplerOpenTag         = "<HTTPSamplerProxy"
	samplerCloseTag        = "</HTTPSamplerProxy>"
	threadGroupOpenTag     = "<ThreadGroup"
	threadGroupCloseTag    = "</ThreadGroup>"
)

// bodyProbeLength is how much of an escaped literal body the repair pass
// searches for before concluding the external generator dropped it.
const bodyProbeLength = 50

// Repair post-processes an externally generated test-plan document and
// guarantees the structural elements of a complete plan are present:
// the two mandatory listeners, cookie/cache handling (and the external data
// source when enabled) after every thread group, and the literal request
// bodies the generator may have dropped.
//
// The pass is idempotent: elements already present are never duplicated. It
// is best-effort string surgery, never a validator, and it never fails; on
// input it cannot work with it returns the document unchanged.
func Repair(doc string, flags Flags, ops []models.Operation, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc = ensureListeners(doc)
	doc = ensureThreadGroupManagers(doc, flags)
	doc = ensureLiteralBodies(doc, ops, logger)
	return doc
}

// ensureListeners appends any missing mandatory result collector right before
// the closing of the outermost hashTree wrapper.
func ensureListeners(doc string) string {
	insertAt := strings.LastIndex(doc, "</hashTree>")
	if insertAt < 0 {
		return doc
	}
	var fragment strings.Builder
	if !strings.Contains(doc, detailedListenerMarker) {
		fragment.WriteString(RenderFragment(resultCollector("ViewResultsFullVisualizer", "View Results Tree"), 2))
		fragment.WriteString(RenderFragment(hashTree(), 2))
	}
	if !strings.Contains(doc, summaryListenerMarker) {
		fragment.WriteString(RenderFragment(resultCollector("SummaryReport", "Summary Report"), 2))
		fragment.WriteString(RenderFragment(hashTree(), 2))
	}
	if fragment.Len() == 0 {
		return doc
	}
	return doc[:insertAt] + fragment.String() + doc[insertAt:]
}

// ensureThreadGroupManagers walks every thread group and inserts a cookie
// manager, cache manager, and (when enabled) external data source at the top
// of its subtree unless one is already there.
func ensureThreadGroupManagers(doc string, flags Flags) string {
	searchFrom := 0
	for {
		tgStart := strings.Index(doc[searchFrom:], threadGroupOpenTag)
		if tgStart < 0 {
			return doc
		}
		tgStart += searchFrom

		tgEnd := strings.Index(doc[tgStart:], threadGroupCloseTag)
		if tgEnd < 0 {
			return doc
		}
		tgEnd += tgStart + len(threadGroupCloseTag)

		updated, next := repairOneThreadGroup(doc, tgStart, tgEnd, flags)
		doc = updated
		searchFrom = next
	}
}

func repairOneThreadGroup(doc string, tgStart, tgEnd int, flags Flags) (string, int) {
	// The subtree is the hashTree that follows the thread group element.
	selfClosed := strings.Index(doc[tgEnd:], "<hashTree/>")
	open := strings.Index(doc[tgEnd:], "<hashTree>")

	var treeStart int
	switch {
	case selfClosed >= 0 && (open < 0 || selfClosed < open):
		// Empty subtree; expand it so managers have somewhere to live.
		at := tgEnd + selfClosed
		doc = doc[:at] + "<hashTree>\n</hashTree>" + doc[at+len("<hashTree/>"):]
		treeStart = at + len("<hashTree>")
	case open >= 0:
		treeStart = tgEnd + open + len("<hashTree>")
	default:
		return doc, tgEnd
	}

	// Only look inside this thread group's slice of the document.
	segmentEnd := strings.Index(doc[treeStart:], threadGroupOpenTag)
	if segmentEnd < 0 {
		segmentEnd = len(doc)
	} else {
		segmentEnd += treeStart
	}
	segment := doc[treeStart:segmentEnd]

	var fragment strings.Builder
	if !strings.Contains(segment, cookieManagerMarker) {
		fragment.WriteString("\n")
		fragment.WriteString(RenderFragment(cookieManagerNode(), 3))
		fragment.WriteString(RenderFragment(hashTree(), 3))
	}
	if !strings.Contains(segment, cacheManagerMarker) {
		if fragment.Len() == 0 {
			fragment.WriteString("\n")
		}
		fragment.WriteString(RenderFragment(cacheManagerNode(), 3))
		fragment.WriteString(RenderFragment(hashTree(), 3))
	}
	if flags.IncludeExternalDataSource && !strings.Contains(segment, csvDataSetMarker) {
		if fragment.Len() == 0 {
			fragment.WriteString("\n")
		}
		fragment.WriteString(RenderFragment(csvDataSetNode(nil), 3))
		fragment.WriteString(RenderFragment(hashTree(), 3))
	}

	if fragment.Len() == 0 {
		return doc, treeStart
	}
	doc = doc[:treeStart] + fragment.String() + doc[treeStart:]
	return doc, treeStart + fragment.Len()
}

func cookieManagerNode() *Node {
	return testElement("CookieManager", "CookiePanel", "CookieManager", "HTTP Cookie Manager").Add(
		collectionProp("CookieManager.cookies"),
		boolProp("CookieManager.clearEachIteration", true),
	)
}

func cacheManagerNode() *Node {
	return testElement("CacheManager", "CacheManagerGui", "CacheManager", "HTTP Cache Manager").Add(
		boolProp("clearEachIteration", true),
		boolProp("useExpires", true),
	)
}

// ensureLiteralBodies re-injects captured request bodies the external
// generator dropped. Matching is a best-effort heuristic: the first
// bodyProbeLength characters of the escaped body are searched in the
// document, and a missing body is injected into the first sampler whose
// testname mentions the operation's name or method. Unmatched operations are
// logged and skipped.
func ensureLiteralBodies(doc string, ops []models.Operation, logger *zap.Logger) string {
	for i := range ops {
		op := &ops[i]
		if !op.IsBodyMethod() || !op.HasLiteralBody() {
			continue
		}
		probe := Escape(op.RequestBody.Literal)
		if len(probe) > bodyProbeLength {
			probe = probe[:bodyProbeLength]
		}
		if strings.Contains(doc, probe) {
			continue
		}

		at := findSamplerForOperation(doc, op)
		if at < 0 {
			logger.Warn("repair skipped: no sampler matched operation body",
				zap.String("method", op.Method),
				zap.String("path", op.Path))
			continue
		}
		doc = doc[:at] + injectedBodyFragment(op.RequestBody.Literal) + doc[at:]
	}
	return doc
}

// findSamplerForOperation returns the insertion offset just before the
// closing tag of the first sampler matching the operation, or -1.
func findSamplerForOperation(doc string, op *models.Operation) int {
	searchFrom := 0
	for {
		start := strings.Index(doc[searchFrom:], samplerOpenTag)
		if start < 0 {
			return -1
		}
		start += searchFrom

		openEnd := strings.Index(doc[start:], ">")
		if openEnd < 0 {
			return -1
		}
		openTag := doc[start : start+openEnd]

		end := strings.Index(doc[start:], samplerCloseTag)
		if end < 0 {
			return -1
		}
		end += start

		name := attributeValue(openTag, "testname")
		if samplerMatches(name, op) {
			return end
		}
		searchFrom = end + len(samplerCloseTag)
	}
}

func samplerMatches(testname string, op *models.Operation) bool {
	if testname == "" {
		return false
	}
	lower := strings.ToLower(testname)
	if op.Name != "" && strings.Contains(lower, strings.ToLower(op.Name)) {
		return true
	}
	return strings.Contains(lower, strings.ToLower(op.Method))
}

func attributeValue(tag, attr string) string {
	marker := attr + `="`
	start := strings.Index(tag, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.Index(tag[start:], `"`)
	if end < 0 {
		return ""
	}
	return tag[start : start+end]
}

func injectedBodyFragment(body string) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(RenderFragment(boolProp("HTTPSampler.postBodyRaw", true), 4))
	b.WriteString(RenderFragment(elementProp("HTTPsampler.Arguments", "Arguments").Add(
		collectionProp("Arguments.arguments",
			El("elementProp").Attr("name", "").Attr("elementType", "HTTPArgument").Add(
				boolProp("HTTPArgument.always_encode", false),
				stringProp("Argument.value", body),
				stringProp("Argument.metadata", "="),
			),
		),
	), 4))
	return b.String()
}
