package jmx

import "strconv"

// JMeter property element constructors. Every JMeter test element is encoded
// as typed *Prop children; these helpers keep the serializer readable.

func stringProp(name, value string) *Node {
	return El("stringProp").Attr("name", name).SetText(value)
}

func boolProp(name string, value bool) *Node {
	return El("boolProp").Attr("name", name).SetText(strconv.FormatBool(value))
}

func intProp(name string, value int) *Node {
	return El("intProp").Attr("name", name).SetText(strconv.Itoa(value))
}

func collectionProp(name string, children ...*Node) *Node {
	return El("collectionProp").Attr("name", name).Add(children...)
}

func elementProp(name, elementType string) *Node {
	return El("elementProp").Attr("name", name).Attr("elementType", elementType)
}

// testElement creates a JMeter test element with the conventional
// guiclass/testclass/testname/enabled attribute set.
func testElement(tag, guiClass, testClass, testName string) *Node {
	return El(tag).
		Attr("guiclass", guiClass).
		Attr("testclass", testClass).
		Attr("testname", testName).
		Attr("enabled", "true")
}

// hashTree is the structural wrapper JMeter expects to follow every element.
func hashTree(children ...*Node) *Node {
	return El("hashTree").Add(children...)
}
