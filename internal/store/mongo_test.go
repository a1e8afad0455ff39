package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Adda-Baaj/bazar-khobor/internal/domain"
)

func TestDecodeNewsDocument(t *testing.T) {
	entry := bson.M{
		"Yahoo News": bson.A{
			bson.M{"title": "Rally", "summary": "S", "link": "y/a", "topic": "Energy"},
			bson.M{"title": "Dip", "summary": "T", "link": "y/b", "topic": "Politics"},
		},
		"Bloomberg": bson.A{
			bson.M{"title": "Merger", "summary": "U", "link": "b/c", "topic": "Financial Services"},
		},
	}

	doc := decodeNewsDocument(entry)
	require.Len(t, doc, 2)
	require.Len(t, doc["Yahoo News"], 2)
	assert.Equal(t, domain.TopicEnergy, doc["Yahoo News"][0].Topic)
	assert.Equal(t, "Merger", doc["Bloomberg"][0].Title)
}

func TestDecodeNewsDocumentSkipsOpaque(t *testing.T) {
	entry := bson.M{
		"raw_text": "model output that never parsed",
	}

	doc := decodeNewsDocument(entry)
	assert.Empty(t, doc)
}

func TestDecodeNewsDocumentSkipsMalformedItems(t *testing.T) {
	entry := bson.M{
		"Yahoo News": bson.A{
			"not an object",
			bson.M{"title": "Kept", "topic": "Energy"},
		},
	}

	doc := decodeNewsDocument(entry)
	require.Len(t, doc["Yahoo News"], 1)
	assert.Equal(t, "Kept", doc["Yahoo News"][0].Title)
}
