package naming

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExternalKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"id":                "id",
		"externalContactId": "external_contact_id",
		"workUntil":         "work_until",
		"isActive":          "is_active",
		"createdAt":         "created_at",
		"already_snake":     "already_snake",
		"userID":            "user_id",
		"HTTPServer":        "http_server",
		"address2Line":      "address2_line",
	}
	for in, want := range cases {
		require.Equal(t, want, ExternalKey(in), in)
	}
}

func TestInternalKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"id":                  "id",
		"external_contact_id": "externalContactId",
		"work_until":          "workUntil",
		"alreadyCamel":        "alreadyCamel",
		"_private":            "_private",
		"double__underscore":  "doubleUnderscore",
	}
	for in, want := range cases {
		require.Equal(t, want, InternalKey(in), in)
	}
}

func TestToInternal_Recursive(t *testing.T) {
	t.Parallel()

	rec := map[string]any{
		"person_id": "p1",
		"meta": map[string]any{
			"car_model": "Lada",
			"stops": []any{
				map[string]any{"pickup_address": "a"},
				"plain_value",
			},
		},
	}

	got := ToInternal(rec)
	require.Equal(t, map[string]any{
		"personId": "p1",
		"meta": map[string]any{
			"carModel": "Lada",
			"stops": []any{
				map[string]any{"pickupAddress": "a"},
				"plain_value",
			},
		},
	}, got)
}

func TestToInternal_Idempotent(t *testing.T) {
	t.Parallel()

	rec := map[string]any{"branch_id": "b1", "is_working": true, "nested": map[string]any{"start_time": "09:00"}}
	once := ToInternal(rec)
	require.Equal(t, once, ToInternal(once))

	ext := ToExternal(once)
	require.Equal(t, ext, ToExternal(ext))
}

func TestRoundTrip_KnownFields(t *testing.T) {
	t.Parallel()

	internal := map[string]any{
		"id":                 "s1",
		"personId":           "p1",
		"branchId":           "b1",
		"date":               "2024-01-01",
		"startTime":          "09:00",
		"endTime":            "18:00",
		"isWorking":          true,
		"destinationAddress": "Main st",
		"courierConfirmed":   false,
	}
	require.Equal(t, internal, ToInternal(ToExternal(internal)))

	external := ToExternal(internal)
	require.Equal(t, external, ToExternal(ToInternal(external)))
}

func TestNil(t *testing.T) {
	t.Parallel()

	require.Nil(t, ToInternal(nil))
	require.Nil(t, ToExternal(nil))
}

func TestDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	rec := map[string]any{"work_until": "18:00"}
	_ = ToInternal(rec)
	require.Equal(t, map[string]any{"work_until": "18:00"}, rec)
}

func TestKeyCache_StaysBounded(t *testing.T) {
	t.Parallel()

	c := &keyCache{convert: camelToSnake}
	for i := 0; i < 3*maxCachedKeys; i++ {
		key := "fieldNo" + strconv.Itoa(i)
		require.Equal(t, "field_no"+strconv.Itoa(i), c.get(key))
	}
	require.EqualValues(t, maxCachedKeys, c.size.Load())

	// uncached keys still convert
	require.Equal(t, "late_key", c.get("lateKey"))
	require.EqualValues(t, maxCachedKeys, c.size.Load())
}
