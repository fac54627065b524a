package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXMLDocument = `<?xml version="1.0" encoding="UTF-8"?>
<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:1" schemaVersion="1.2">
  <EPCISBody>
    <EventList>
      <ObjectEvent>
        <eventTime>2024-12-15T10:00:00Z</eventTime>
        <eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
        <epcList>
          <epc>urn:epc:id:sgtin:0614141.107346.1001</epc>
          <epc>urn:epc:id:sgtin:0614141.107346.1002</epc>
        </epcList>
        <action>ADD</action>
        <bizStep>urn:epcglobal:cbv:bizstep:commissioning</bizStep>
        <disposition>urn:epcglobal:cbv:disp:active</disposition>
        <readPoint>
          <id>urn:epc:id:sgln:0614141.00001.0</id>
        </readPoint>
        <bizLocation>
          <id>urn:epc:id:sgln:0614141.00002.0</id>
        </bizLocation>
      </ObjectEvent>
      <AggregationEvent>
        <eventTime>2024-12-15T11:00:00Z</eventTime>
        <eventTimeZoneOffset>+00:00</eventTimeZoneOffset>
        <parentID>urn:epc:id:sscc:0614141.1234567890</parentID>
        <childEPCs>
          <epc>urn:epc:id:sgtin:0614141.107346.1001</epc>
          <epc>urn:epc:id:sgtin:0614141.107346.1002</epc>
        </childEPCs>
        <action>ADD</action>
        <bizStep>urn:epcglobal:cbv:bizstep:packing</bizStep>
      </AggregationEvent>
    </EventList>
  </EPCISBody>
</epcis:EPCISDocument>`

func TestParseXMLDocument(t *testing.T) {
	events, err := ParseXMLDocument([]byte(sampleXMLDocument))
	require.NoError(t, err)
	require.Len(t, events, 2)

	obj := events[0]
	assert.Equal(t, "ObjectEvent", obj.EventType)
	assert.Equal(t, 0, obj.Index)
	assert.Equal(t, "2024-12-15T10:00:00Z", obj.Fields[fieldEventTime])
	assert.Equal(t, "+00:00", obj.Fields[fieldTimeZoneOffset])
	assert.Equal(t, "ADD", obj.Fields[fieldAction])
	assert.Equal(t, "urn:epcglobal:cbv:bizstep:commissioning", obj.Fields[fieldBizStep])
	assert.Equal(t, "urn:epcglobal:cbv:disp:active", obj.Fields[fieldDisposition])
	assert.Equal(t, "urn:epc:id:sgln:0614141.00001.0", obj.Fields[fieldReadPoint])
	assert.Equal(t, "urn:epc:id:sgln:0614141.00002.0", obj.Fields[fieldBizLocation])
	assert.Equal(t, []string{
		"urn:epc:id:sgtin:0614141.107346.1001",
		"urn:epc:id:sgtin:0614141.107346.1002",
	}, obj.Lists[listEPCs])

	agg := events[1]
	assert.Equal(t, "AggregationEvent", agg.EventType)
	assert.Equal(t, 1, agg.Index)
	assert.Equal(t, "urn:epc:id:sscc:0614141.1234567890", agg.Fields[fieldParentID])
	assert.Len(t, agg.Lists[listChildEPCs], 2)
}

func TestParseXMLDocument_NamespaceFree(t *testing.T) {
	doc := `<EPCISDocument>
  <EPCISBody>
    <EventList>
      <ObjectEvent>
        <eventTime>2024-12-15T10:00:00Z</eventTime>
        <action>OBSERVE</action>
        <epcList>
          <epc>urn:epc:id:sgtin:0614141.107346.1001</epc>
        </epcList>
      </ObjectEvent>
    </EventList>
  </EPCISBody>
</EPCISDocument>`

	events, err := ParseXMLDocument([]byte(doc))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ObjectEvent", events[0].EventType)
	assert.Equal(t, "OBSERVE", events[0].Fields[fieldAction])
}

func TestParseXMLDocument_ExtensionNesting(t *testing.T) {
	doc := `<EPCISDocument>
  <EPCISBody>
    <EventList>
      <ObjectEvent>
        <eventTime>2024-12-15T10:00:00Z</eventTime>
        <action>OBSERVE</action>
        <epcList>
          <epc>urn:epc:id:sscc:0614141.1234567890</epc>
        </epcList>
        <bizStep>urn:epcglobal:cbv:bizstep:shipping</bizStep>
        <extension>
          <quantityList>
            <quantityElement>
              <epcClass>urn:epc:class:lgtin:0614141.107346.LOT1</epcClass>
              <quantity>200</quantity>
              <uom>EA</uom>
            </quantityElement>
          </quantityList>
          <sourceList>
            <source type="urn:epcglobal:cbv:sdt:owning_party">urn:epc:id:sgln:0300011111.11.0</source>
          </sourceList>
          <destinationList>
            <destination type="urn:epcglobal:cbv:sdt:owning_party">urn:epc:id:sgln:0300021111.11.0</destination>
          </destinationList>
        </extension>
      </ObjectEvent>
    </EventList>
  </EPCISBody>
</EPCISDocument>`

	events, err := ParseXMLDocument([]byte(doc))
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	require.Len(t, event.Quantities, 1)
	assert.Equal(t, "urn:epc:class:lgtin:0614141.107346.LOT1", event.Quantities[0].EPCClass)
	assert.Equal(t, float64(200), event.Quantities[0].Quantity)
	assert.Equal(t, "EA", event.Quantities[0].UOM)

	require.Len(t, event.Sources, 1)
	assert.Equal(t, "urn:epcglobal:cbv:sdt:owning_party", event.Sources[0].Type)
	assert.Equal(t, "urn:epc:id:sgln:0300011111.11.0", event.Sources[0].Value)

	require.Len(t, event.Destinations, 1)
	assert.Equal(t, "urn:epc:id:sgln:0300021111.11.0", event.Destinations[0].Value)
}

func TestParseXMLDocument_NotXML(t *testing.T) {
	_, err := ParseXMLDocument([]byte("<EPCISDocument><unclosed"))
	require.Error(t, err)
	assert.IsType(t, &FormatError{}, err)
}

func TestParseXMLDocument_EmptyEventList(t *testing.T) {
	doc := `<EPCISDocument><EPCISBody><EventList></EventList></EPCISBody></EPCISDocument>`
	events, err := ParseXMLDocument([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, events)
}
