package export

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pehchaan-id/pehchaan-compliance/internal/datarights"
)

func testBundle() *Bundle {
	return &Bundle{
		UserID:      "usr_1",
		GeneratedAt: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
		Categories: map[datarights.Category]map[string]any{
			datarights.CategoryProfile: {
				"displayName": "Asha",
				"email":       "asha@example.in",
			},
			datarights.CategoryReputation: {
				"score": uint64(740),
			},
		},
	}
}

func TestRenderJSON(t *testing.T) {
	data, err := Render(testBundle(), datarights.FormatJSON)
	require.NoError(t, err)

	var decoded struct {
		UserID     string                    `json:"userId"`
		Categories map[string]map[string]any `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "usr_1", decoded.UserID)
	assert.Equal(t, "Asha", decoded.Categories["profile"]["displayName"])
	assert.Equal(t, float64(740), decoded.Categories["reputation"]["score"])
}

func TestRenderCSV(t *testing.T) {
	data, err := Render(testBundle(), datarights.FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "category,field,value", lines[0])
	// Categories and fields come out sorted.
	assert.Equal(t, "profile,displayName,Asha", lines[1])
	assert.Equal(t, "profile,email,asha@example.in", lines[2])
	assert.Equal(t, "reputation,score,740", lines[3])
}

func TestRenderXML(t *testing.T) {
	data, err := Render(testBundle(), datarights.FormatXML)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(data), xml.Header))

	var decoded struct {
		UserID     string `xml:"userId,attr"`
		Categories []struct {
			Name   string `xml:"name,attr"`
			Fields []struct {
				Name  string `xml:"name,attr"`
				Value string `xml:",chardata"`
			} `xml:"field"`
		} `xml:"category"`
	}
	require.NoError(t, xml.Unmarshal(data, &decoded))

	assert.Equal(t, "usr_1", decoded.UserID)
	require.Len(t, decoded.Categories, 2)
	assert.Equal(t, "profile", decoded.Categories[0].Name)
	assert.Equal(t, "displayName", decoded.Categories[0].Fields[0].Name)
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(testBundle(), datarights.ExportFormat("yaml"))
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", ContentType(datarights.FormatJSON))
	assert.Equal(t, "text/csv", ContentType(datarights.FormatCSV))
	assert.Equal(t, "application/xml", ContentType(datarights.FormatXML))
}
