package jmx

import (
	"strconv"
	"strings"

	"github.com/loadscribe/loadscribe/internal/models"
	"github.com/loadscribe/loadscribe/internal/sample"
)

// DefaultMaxDurationMS is the duration-assertion threshold used when neither
// the caller nor the AI analysis recommends one.
const DefaultMaxDurationMS = 5000

// DefaultTestDataFile is the CSV the external-data-source node references.
const DefaultTestDataFile = "testdata.csv"

// Flags toggles the optional sections of a generated plan.
type Flags struct {
	IncludeAssertions            bool
	IncludeCorrelationExtractors bool
	IncludeExternalDataSource    bool
}

// Options configures one serialization run.
type Options struct {
	Title    string
	Comment  string
	Protocol string
	Host     string
	Port     string
	Flags    Flags

	// MaxDurationMS overrides the duration-assertion threshold; 0 means the
	// AI recommendation or DefaultMaxDurationMS.
	MaxDurationMS int
}

// Serialize renders the grouped operations as a complete JMeter test plan:
// one TestPlan carrying the protocol/host/port variables, one ThreadGroup per
// group, per-operation samplers with assertions and extractors, and the two
// mandatory result collectors.
//
// Path parameters stay as literal {param} tokens; resolving them is an
// execution-time concern of the target tool.
func Serialize(groups []models.OperationGroup, profile models.LoadProfile, opts Options, insight *models.AIInsight) (string, error) {
	if profile.ThreadCount <= 0 {
		return "", &models.SerializationError{Field: "threadCount", Reason: "must be positive"}
	}
	if strings.TrimSpace(opts.Title) == "" {
		return "", &models.SerializationError{Field: "title", Reason: "must not be blank"}
	}

	planTree := hashTree()
	for _, group := range groups {
		planTree.Add(threadGroupNode(group, profile, insight))
		planTree.Add(threadGroupTree(group, opts, insight))
	}
	planTree.Add(resultCollector("ViewResultsFullVisualizer", "View Results Tree"), hashTree())
	planTree.Add(resultCollector("SummaryReport", "Summary Report"), hashTree())

	root := El("jmeterTestPlan").
		Attr("version", "1.2").
		Attr("properties", "5.0").
		Attr("jmeter", "5.6.3").
		Add(hashTree(
			testPlanNode(opts),
			planTree,
		))

	return Render(root), nil
}

func testPlanNode(opts Options) *Node {
	variables := elementProp("TestPlan.user_defined_variables", "Arguments").
		Attr("guiclass", "ArgumentsPanel").
		Attr("testclass", "Arguments").
		Attr("testname", "User Defined Variables").
		Add(collectionProp("Arguments.arguments",
			argument("PROTOCOL", opts.Protocol),
			argument("HOST", opts.Host),
			argument("PORT", opts.Port),
		))

	return testElement("TestPlan", "TestPlanGui", "TestPlan", opts.Title).Add(
		stringProp("TestPlan.comments", opts.Comment),
		boolProp("TestPlan.functional_mode", false),
		boolProp("TestPlan.tearDown_on_shutdown", true),
		boolProp("TestPlan.serialize_threadgroups", false),
		variables,
		stringProp("TestPlan.user_define_classpath", ""),
	)
}

func argument(name, value string) *Node {
	return elementProp(name, "Argument").Add(
		stringProp("Argument.name", name),
		stringProp("Argument.value", value),
		stringProp("Argument.metadata", "="),
	)
}

func threadGroupNode(group models.OperationGroup, profile models.LoadProfile, insight *models.AIInsight) *Node {
	threads := profile.ThreadCount
	rampUp := profile.RampUpSeconds
	if rec := insight.GroupOverride(group.Name); rec != nil {
		if rec.ThreadCount > 0 {
			threads = rec.ThreadCount
		}
		if rec.RampUpSeconds > 0 {
			rampUp = rec.RampUpSeconds
		}
	}

	loops := profile.Loops()
	continueForever := profile.ContinueForever
	if profile.UseScheduler() {
		// Scheduler takes over; the loop count is disregarded.
		loops = -1
		continueForever = true
	}

	controller := elementProp("ThreadGroup.main_controller", "LoopController").
		Attr("guiclass", "LoopControlPanel").
		Attr("testclass", "LoopController").
		Attr("testname", "Loop Controller").
		Add(
			boolProp("LoopController.continue_forever", continueForever),
			stringProp("LoopController.loops", strconv.Itoa(loops)),
		)

	tg := testElement("ThreadGroup", "ThreadGroupGui", "ThreadGroup", group.Name).Add(
		stringProp("ThreadGroup.on_sample_error", "continue"),
		controller,
		stringProp("ThreadGroup.num_threads", strconv.Itoa(threads)),
		stringProp("ThreadGroup.ramp_time", strconv.Itoa(rampUp)),
		boolProp("ThreadGroup.scheduler", profile.UseScheduler()),
		stringProp("ThreadGroup.duration", strconv.Itoa(profile.DurationSeconds)),
		stringProp("ThreadGroup.delay", ""),
	)
	return tg
}

func threadGroupTree(group models.OperationGroup, opts Options, insight *models.AIInsight) *Node {
	tree := hashTree()

	if opts.Flags.IncludeExternalDataSource {
		tree.Add(csvDataSetNode(insight), hashTree())
	}
	tree.Add(headerManagerNode(group), hashTree())

	for i := range group.Operations {
		op := &group.Operations[i]
		tree.Add(samplerNode(op))
		tree.Add(samplerTree(op, opts, insight))
	}
	return tree
}

func csvDataSetNode(insight *models.AIInsight) *Node {
	var names []string
	if insight != nil {
		for _, p := range insight.Parameterizations {
			if p.Name != "" {
				names = append(names, p.Name)
			}
		}
	}
	return testElement("CSVDataSet", "TestBeanGUI", "CSVDataSet", "Test Data").Add(
		stringProp("filename", DefaultTestDataFile),
		stringProp("fileEncoding", "UTF-8"),
		stringProp("variableNames", strings.Join(names, ",")),
		boolProp("ignoreFirstLine", true),
		stringProp("delimiter", ","),
		boolProp("quotedData", false),
		boolProp("recycle", true),
		boolProp("stopThread", false),
		stringProp("shareMode", "shareMode.all"),
	)
}

// headerManagerNode declares the headers shared by every operation in the
// group, falling back to JSON content negotiation when the group has none in
// common.
func headerManagerNode(group models.OperationGroup) *Node {
	headers := commonHeaders(group.Operations)
	if len(headers) == 0 {
		headers = []models.Header{
			{Name: "Content-Type", Value: "application/json"},
			{Name: "Accept", Value: "application/json"},
		}
	}

	collection := collectionProp("HeaderManager.headers")
	for _, h := range headers {
		collection.Add(El("elementProp").Attr("name", "").Attr("elementType", "Header").Add(
			stringProp("Header.name", h.Name),
			stringProp("Header.value", h.Value),
		))
	}
	return testElement("HeaderManager", "HeaderPanel", "HeaderManager", "HTTP Header Manager").
		Add(collection)
}

// skippedHeaders never belong in a generated header manager.
var skippedHeaders = map[string]bool{
	"content-length": true,
	"host":           true,
	"cookie":         true,
	"connection":     true,
}

func commonHeaders(ops []models.Operation) []models.Header {
	if len(ops) == 0 {
		return nil
	}
	var common []models.Header
	for _, h := range ops[0].RequestHeaders {
		if skippedHeaders[strings.ToLower(h.Name)] || strings.HasPrefix(h.Name, ":") {
			continue
		}
		inAll := true
		for _, op := range ops[1:] {
			if !hasHeader(op.RequestHeaders, h) {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, h)
		}
	}
	return common
}

func hasHeader(headers []models.Header, want models.Header) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Name, want.Name) && h.Value == want.Value {
			return true
		}
	}
	return false
}

func samplerNode(op *models.Operation) *Node {
	args := collectionProp("Arguments.arguments")
	for _, q := range op.QueryParameters {
		args.Add(elementProp(q.Name, "HTTPArgument").Add(
			boolProp("HTTPArgument.always_encode", true),
			stringProp("Argument.name", q.Name),
			stringProp("Argument.value", q.Value),
			stringProp("Argument.metadata", "="),
			boolProp("HTTPArgument.use_equals", true),
		))
	}

	body := ""
	if op.IsBodyMethod() {
		body = sample.BodyFor(op)
	}

	sampler := testElement("HTTPSamplerProxy", "HttpTestSampleGui", "HTTPSamplerProxy", samplerName(op))
	if body != "" {
		// Raw body mode replaces the argument panel with a single unnamed
		// argument carrying the payload.
		sampler.Add(boolProp("HTTPSampler.postBodyRaw", true))
		sampler.Add(elementProp("HTTPsampler.Arguments", "Arguments").Add(
			collectionProp("Arguments.arguments",
				El("elementProp").Attr("name", "").Attr("elementType", "HTTPArgument").Add(
					boolProp("HTTPArgument.always_encode", false),
					stringProp("Argument.value", body),
					stringProp("Argument.metadata", "="),
				),
			),
		))
	} else {
		sampler.Add(elementProp("HTTPsampler.Arguments", "Arguments").
			Attr("guiclass", "HTTPArgumentsPanel").
			Attr("testclass", "Arguments").
			Attr("testname", "User Defined Variables").
			Add(args))
	}

	sampler.Add(
		stringProp("HTTPSampler.domain", "${HOST}"),
		stringProp("HTTPSampler.port", "${PORT}"),
		stringProp("HTTPSampler.protocol", "${PROTOCOL}"),
		stringProp("HTTPSampler.contentEncoding", ""),
		stringProp("HTTPSampler.path", op.Path),
		stringProp("HTTPSampler.method", op.Method),
		boolProp("HTTPSampler.follow_redirects", true),
		boolProp("HTTPSampler.auto_redirects", false),
		boolProp("HTTPSampler.use_keepalive", true),
		boolProp("HTTPSampler.DO_MULTIPART_POST", false),
	)
	return sampler
}

func samplerName(op *models.Operation) string {
	if op.Name != "" {
		return op.Name
	}
	return op.Method + " " + op.Path
}

func samplerTree(op *models.Operation, opts Options, insight *models.AIInsight) *Node {
	tree := hashTree()

	if opts.Flags.IncludeAssertions {
		tree.Add(statusAssertionNode(op), hashTree())
		tree.Add(durationAssertionNode(opts, insight), hashTree())
	}

	if opts.Flags.IncludeCorrelationExtractors && insight != nil {
		for _, field := range insight.Correlations {
			tree.Add(extractorNode(field), hashTree())
		}
	}
	return tree
}

func statusAssertionNode(op *models.Operation) *Node {
	codes := op.ExpectedStatus
	if len(codes) == 0 {
		codes = []int{200, 201}
	}
	strs := collectionProp("Asserion.test_strings")
	for i, code := range codes {
		strs.Add(El("stringProp").Attr("name", strconv.Itoa(i)).SetText(strconv.Itoa(code)))
	}
	return testElement("ResponseAssertion", "AssertionGui", "ResponseAssertion", "Status Assertion").Add(
		strs,
		stringProp("Assertion.custom_message", ""),
		stringProp("Assertion.test_field", "Assertion.response_code"),
		boolProp("Assertion.assume_success", false),
		intProp("Assertion.test_type", 33),
	)
}

func durationAssertionNode(opts Options, insight *models.AIInsight) *Node {
	threshold := opts.MaxDurationMS
	if threshold <= 0 {
		threshold = insight.MaxDurationMS(DefaultMaxDurationMS)
	}
	return testElement("DurationAssertion", "DurationAssertionGui", "DurationAssertion", "Duration Assertion").
		Add(stringProp("DurationAssertion.duration", strconv.Itoa(threshold)))
}

// extractorNode binds one correlation field to a variable with a literal
// default, so downstream samplers never see an undefined substitution.
func extractorNode(field models.CorrelationField) *Node {
	defaultValue := field.Name + "_NOT_FOUND"
	if field.Source == models.CorrelationFromHeader {
		return testElement("RegexExtractor", "RegexExtractorGui", "RegexExtractor", "Extract "+field.Name).Add(
			stringProp("RegexExtractor.useHeaders", "true"),
			stringProp("RegexExtractor.refname", field.Name),
			stringProp("RegexExtractor.regex", field.Expression),
			stringProp("RegexExtractor.template", "$1$"),
			stringProp("RegexExtractor.default", defaultValue),
			stringProp("RegexExtractor.match_number", "1"),
		)
	}
	return testElement("JSONPostProcessor", "JSONPostProcessorGui", "JSONPostProcessor", "Extract "+field.Name).Add(
		stringProp("JSONPostProcessor.referenceNames", field.Name),
		stringProp("JSONPostProcessor.jsonPathExprs", field.Expression),
		stringProp("JSONPostProcessor.match_numbers", "1"),
		stringProp("JSONPostProcessor.defaultValues", defaultValue),
	)
}

func resultCollector(guiClass, name string) *Node {
	saveConfig := El("objProp").Add(
		El("name").SetText("saveConfig"),
		El("value").Attr("class", "SampleSaveConfiguration").Add(
			El("time").SetText("true"),
			El("latency").SetText("true"),
			El("timestamp").SetText("true"),
			El("success").SetText("true"),
			El("label").SetText("true"),
			El("code").SetText("true"),
			El("message").SetText("true"),
			El("threadName").SetText("true"),
			El("dataType").SetText("true"),
			El("encoding").SetText("false"),
			El("assertions").SetText("true"),
			El("subresults").SetText("true"),
			El("responseData").SetText("false"),
			El("samplerData").SetText("false"),
			El("xml").SetText("false"),
			El("fieldNames").SetText("true"),
			El("responseHeaders").SetText("false"),
			El("requestHeaders").SetText("false"),
			El("responseDataOnError").SetText("false"),
			El("saveAssertionResultsFailureMessage").SetText("true"),
			El("assertionsResultsToSave").SetText("0"),
			El("bytes").SetText("true"),
			El("sentBytes").SetText("true"),
			El("url").SetText("true"),
			El("threadCounts").SetText("true"),
			El("idleTime").SetText("true"),
			El("connectTime").SetText("true"),
		),
	)
	return testElement("ResultCollector", guiClass, "ResultCollector", name).Add(
		boolProp("ResultCollector.error_logging", false),
		saveConfig,
		stringProp("filename", ""),
	)
}
