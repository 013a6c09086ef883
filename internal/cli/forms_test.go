package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSets(t *testing.T) {
	got, err := parseSets([]string{"name=Ada", "email=a=b@example.com", "name=Grace", "city="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Grace", "email": "a=b@example.com", "city": ""}, got)

	_, err = parseSets([]string{"name"})
	assert.Error(t, err)
	_, err = parseSets([]string{"=Ada"})
	assert.Error(t, err)
}

func TestValidate_Valid(t *testing.T) {
	out, err := execute(t, "validate", "customer", "--set", "name=Ada Lovelace", "--set", "email=ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "✓ customer is valid\n", out)
}

func TestValidate_Invalid(t *testing.T) {
	out, err := execute(t, "validate", "customer", "--set", "name=A", "--set", "email=not-an-email", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode[any](t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, details["valid"])
	assert.Equal(t, map[string]any{
		"name":  []any{"Customer name must be at least 2 characters"},
		"email": []any{"Must be a valid email address"},
	}, details["errors"])
}

func TestValidate_RequiredFieldsText(t *testing.T) {
	out, err := execute(t, "validate", "apparel")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Equal(t, "✗ apparelName: Apparel name is required\n"+
		"✗ apparelStyle: Apparel style is required\n"+
		"✗ price: Price is required\n", out)
}

func TestValidate_OptionalNumberAcceptsZero(t *testing.T) {
	_, err := execute(t, "validate", "apparel",
		"--set", "apparelName=Linen Shirt", "--set", "apparelStyle=Loose",
		"--set", "price=45", "--set", "quantityOnHand=0")
	require.NoError(t, err)
}

func TestValidate_CommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown form", []string{"invoice"}},
		{"unknown field", []string{"apparel", "--set", "color=red"}},
		{"unparsable number", []string{"apparel", "--set", "price=cheap"}},
		{"malformed set", []string{"apparel", "--set", "price"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"validate", "--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decode[any](t, out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
		})
	}
}

func TestCreate_Apparel(t *testing.T) {
	db := seededDB(t)

	out, err := execute(t, "create", "apparel", "--db", db,
		"--set", "apparelName=Rain Coat", "--set", "apparelStyle=Loose",
		"--set", "price=120", "--set", "quantityOnHand=3")
	require.NoError(t, err)
	assert.Equal(t, "✓ apparel 6 created\n", out)

	res := listJSON(t, "apparel", "--db", db, "--filter", "apparelName=Rain Coat")
	assert.Equal(t, 1, res.Total)
}

func TestCreate_OrderJSON(t *testing.T) {
	db := seededDB(t)

	out, err := execute(t, "create", "order", "--db", db, "--format", "json",
		"--set", "customerId=1", "--set", "paymentAmount=90",
		"--set", "apparelId=1", "--set", "orderQuantity=2")
	require.NoError(t, err)

	resp := decode[FormResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "submitted", resp.Data.Outcome)
	assert.Equal(t, int64(3), resp.Data.ID)
	assert.NotEmpty(t, resp.Data.SubmissionID)

	res := listJSON(t, "order", "--db", db)
	assert.Equal(t, 3, res.Total)
}

func TestCreate_InvalidWritesNothing(t *testing.T) {
	db := seededDB(t)

	out, err := execute(t, "create", "customer", "--db", db, "--set", "email=grace@example.com")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "✗ name: Customer name is required\n", out)

	res := listJSON(t, "customer", "--db", db)
	assert.Equal(t, 2, res.Total)
}

func TestCreate_Shipment(t *testing.T) {
	db := seededDB(t)
	sets := []string{
		"--set", "shipmentDate=2024-03-05T09:30",
		"--set", "carrier=FedEx",
		"--set", "trackingNumber=7712",
	}

	out, err := execute(t, append([]string{"create", "shipment", "--db", db, "--order", "1"}, sets...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ shipment")
	assert.Contains(t, out, "created")

	out, err = execute(t, append([]string{"create", "shipment", "--db", db, "--format", "json"}, sets...)...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode[any](t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRejected, resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "failed", details["outcome"])
	assert.Equal(t, map[string]any{"": []any{"shipments need --order"}}, details["errors"])
}

func TestCreate_UnknownForm(t *testing.T) {
	db := seededDB(t)

	_, err := execute(t, "create", "invoice", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
