package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
)

func decodeRecord(t *testing.T, body string) *catalog.Record {
	t.Helper()
	var rec catalog.Record
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	return &rec
}

func TestBuildInitialStateWithoutSeed(t *testing.T) {
	t.Parallel()

	state := catalog.BuildInitialState(nil)
	require.Equal(t, catalog.Multilang{}, state.Name)
	require.Equal(t, "", state.Price)
	require.Equal(t, "", state.OldPrice)
	require.True(t, state.InStock)
	require.Equal(t, []int64{}, state.CategorieIDs)
	require.Empty(t, state.Images)
	require.NotNil(t, state.Images)
	require.Equal(t, catalog.EmptyCharacteristics(), state.Characteristics)
}

func TestBuildInitialStateFromRecord(t *testing.T) {
	t.Parallel()

	schema := testSchema(t)
	rec := decodeRecord(t, `{
		"id": 17,
		"name": {"ru": "Фильтр", "ro": "Filtru"},
		"brand": "{\"ru\":\"Aquaphor\"}",
		"description": null,
		"type": {"ru": "Кувшин", "ro": "Cana"},
		"price": 349.90,
		"oldPrice": "399",
		"inStock": "false",
		"characteristics": "{\"ru\":{\"A\":\"3\"},\"ro\":{\"B_ro\":\"x\"}}",
		"categorieIds": ["2", 5, "bad"],
		"images": ["/uploads/1.jpg"],
		"slug": "filtr"
	}`)

	state := schema.BuildInitialState(rec)
	require.Equal(t, catalog.Multilang{RU: "Фильтр", RO: "Filtru"}, state.Name)
	require.Equal(t, catalog.Multilang{RU: "Aquaphor"}, state.Brand)
	require.Equal(t, catalog.Multilang{}, state.Description)
	require.Equal(t, "349.9", state.Price)
	require.Equal(t, "399", state.OldPrice)
	require.False(t, state.InStock)
	require.Equal(t, []int64{2, 5}, state.CategorieIDs)
	require.Equal(t, catalog.CharacteristicSet{{Key: "A", Value: "3"}, {Key: "B", Value: ""}}, state.Characteristics.RU)
	require.Equal(t, catalog.CharacteristicSet{{Key: "A_ro", Value: ""}, {Key: "B_ro", Value: "x"}}, state.Characteristics.RO)

	require.Equal(t, "17", rec.IDString())
	require.Equal(t, []string{"/uploads/1.jpg"}, rec.ImagePaths())
	require.JSONEq(t, `"filtr"`, string(rec.Extra["slug"]))
}

func TestBuildInitialStateToleratesMalformedSeeds(t *testing.T) {
	t.Parallel()

	schema := testSchema(t)
	seeds := []string{
		`{}`,
		`{"name": 5, "brand": [], "description": "{", "type": true}`,
		`{"name": null, "price": null, "oldPrice": null, "inStock": null}`,
		`{"characteristics": "[[", "categorieIds": "{}"}`,
		`{"characteristics": {"ru": null, "ro": 7}, "categorieIds": 12}`,
		`{"name": "{\"ru\": {\"nested\": true}}", "inStock": "maybe"}`,
	}
	for _, body := range seeds {
		state := schema.BuildInitialState(decodeRecord(t, body))

		for _, field := range []catalog.Multilang{state.Name, state.Brand, state.Description, state.Type} {
			require.Equal(t, catalog.Multilang{}, field, "seed %s", body)
		}
		require.True(t, state.InStock, "seed %s", body)
		require.Equal(t, []string{"A", "B"}, state.Characteristics.RU.Keys())
		require.Equal(t, []string{"A_ro", "B_ro"}, state.Characteristics.RO.Keys())
		require.NotNil(t, state.CategorieIDs)
	}
}

func TestBuildInitialStateLenientPrices(t *testing.T) {
	t.Parallel()

	state := catalog.BuildInitialState(decodeRecord(t, `{"price": "abc", "oldPrice": 0}`))
	require.Equal(t, "abc", state.Price)
	require.Equal(t, "0", state.OldPrice)
}

func TestBuildInitialStateIsIdempotent(t *testing.T) {
	t.Parallel()

	schema := testSchema(t)
	seeds := []string{
		`{}`,
		`{"name": {"ru": " a ", "ro": "b"}, "price": 10.50, "oldPrice": "",
		  "inStock": 0, "categorieIds": ["1", 2, null],
		  "characteristics": {"ru": {"Extra": "e", "A": 1}, "ro": {"B_ro": null}}}`,
		`{"brand": "{\"ro\":\"x\"}", "price": " 7 ", "characteristics": "{\"ro\":{\"Z\":\"z\"}}"}`,
	}
	for _, body := range seeds {
		first := schema.BuildInitialState(decodeRecord(t, body))
		second := schema.BuildInitialState(first.Record())
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("state changed after rebuild (-first +second):\n%s", diff)
		}
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	t.Parallel()

	rec := decodeRecord(t, `{"id":"p1","price":12,"extra":{"a":1},"name":{"ru":"x","ro":"y"}}`)
	encoded, err := json.Marshal(rec)
	require.NoError(t, err)
	require.Equal(t, `{"id":"p1","name":{"ru":"x","ro":"y"},"price":12,"extra":{"a":1}}`, string(encoded))
}

func TestProductFormStateCloneIsIndependent(t *testing.T) {
	t.Parallel()

	state := catalog.BuildInitialState(nil)
	state.CategorieIDs = append(state.CategorieIDs, 1)
	clone := state.Clone()
	clone.CategorieIDs[0] = 9
	clone.Characteristics.RU[0].Value = "changed"

	require.Equal(t, int64(1), state.CategorieIDs[0])
	require.Equal(t, "", state.Characteristics.RU[0].Value)
}
