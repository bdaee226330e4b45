package transform

import (
	"net/http"
	"testing"

	"github.com/pokt-network/poktroll/pkg/polylog/polyzero"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/buildwithgrove/outcall/outcall"
)

func okResponse(body string) Args {
	return Args{Response: outcall.Response{
		Status:  http.StatusOK,
		Headers: []outcall.Header{{Name: "Date", Value: "Mon, 02 Jan 2006 15:04:05 GMT"}},
		Body:    []byte(body),
	}}
}

func TestProcessor_SendTransaction(t *testing.T) {
	c := require.New(t)

	input := `{"id":1,"jsonrpc":"2.0","result":{"blockHash":"0xabc","blockNumber":"0x1b4","status":"0x1","transactionIndex":"0x10","gasUsed":12345678901234567890}}`

	processor := NewProcessor(polyzero.NewLogger(), SendTransaction())
	out, err := processor.Transform(okResponse(input))
	c.NoError(err)

	c.Equal(http.StatusOK, out.Status)
	c.Empty(out.Headers)
	c.Equal(
		`{"id":1,"jsonrpc":"2.0","result":{"blockHash":"0xabc","blockNumber":"0x1b4","gasUsed":12345678901234567890,"status":"0x1","transactionIndex":"0x0"}}`,
		string(out.Body),
	)

	// Everything but transactionIndex is preserved.
	expected := gjson.Parse(input).Get("result").Map()
	actual := gjson.ParseBytes(out.Body).Get("result").Map()
	c.Len(actual, len(expected))
	for key, value := range expected {
		if key == fieldTransactionIndex {
			continue
		}
		c.Equal(value.Raw, actual[key].Raw, key)
	}
}

func TestProcessor_TransactionIndexValues(t *testing.T) {
	processor := NewProcessor(polyzero.NewLogger(), SendTransaction())

	for _, value := range []string{`"0x10"`, `"0x0"`, `"0xffffffff"`, `17`, `null`, `""`} {
		t.Run(value, func(t *testing.T) {
			c := require.New(t)

			out, err := processor.Transform(okResponse(`{"result":{"transactionIndex":` + value + `}}`))
			c.NoError(err)
			c.Equal("0x0", gjson.GetBytes(out.Body, "result.transactionIndex").String())
			c.Equal(gjson.String, gjson.GetBytes(out.Body, "result.transactionIndex").Type)
		})
	}
}

func TestProcessor_MissingTransactionIndexIsInserted(t *testing.T) {
	c := require.New(t)

	processor := NewProcessor(polyzero.NewLogger(), SendTransaction())
	out, err := processor.Transform(okResponse(`{"result":{"status":"0x1"}}`))
	c.NoError(err)
	c.Equal(`{"result":{"status":"0x1","transactionIndex":"0x0"}}`, string(out.Body))
}

func TestProcessor_GetFilterChanges(t *testing.T) {
	c := require.New(t)

	input := `{"result":[{"logIndex":"0x11","transactionIndex":"0x12"},{"logIndex":"0x10","transactionIndex":"0x13"}]}`

	processor := NewProcessor(polyzero.NewLogger(), GetFilterChanges())
	out, err := processor.Transform(okResponse(input))
	c.NoError(err)
	c.Equal(`{"result":[{"logIndex":"0x0","transactionIndex":"0x0"},{"logIndex":"0x0","transactionIndex":"0x0"}]}`, string(out.Body))
}

func TestProcessor_ArrayPreservesLengthAndOrder(t *testing.T) {
	c := require.New(t)

	input := `{"id":7,"jsonrpc":"2.0","result":[` +
		`{"address":"0xa","data":"0x01","logIndex":"0x5","transactionIndex":"0x1"},` +
		`{"address":"0xb","data":"0x02","logIndex":"0x6","transactionIndex":"0x2"},` +
		`{"address":"0xc","data":"0x03","logIndex":"0x7","transactionIndex":"0x3"}]}`

	processor := NewProcessor(polyzero.NewLogger(), GetFilterChanges())
	out, err := processor.Transform(okResponse(input))
	c.NoError(err)

	elems := gjson.GetBytes(out.Body, "result").Array()
	c.Len(elems, 3)
	for i, addr := range []string{"0xa", "0xb", "0xc"} {
		c.Equal(addr, elems[i].Get("address").String())
		c.Equal("0x0", elems[i].Get("logIndex").String())
		c.Equal("0x0", elems[i].Get("transactionIndex").String())
	}
}

func TestProcessor_FlagsAreIndependent(t *testing.T) {
	input := `{"result":[{"logIndex":"0x11","transactionIndex":"0x12"}]}`

	tests := []struct {
		name     string
		config   Config
		expected string
	}{
		{
			name:     "no flags only canonicalizes",
			config:   NewBuilder(ShapeArray).Build(),
			expected: `{"result":[{"logIndex":"0x11","transactionIndex":"0x12"}]}`,
		},
		{
			name:     "log index only",
			config:   NewBuilder(ShapeArray).LogIndex(true).Build(),
			expected: `{"result":[{"logIndex":"0x0","transactionIndex":"0x12"}]}`,
		},
		{
			name:     "transaction index only",
			config:   NewBuilder(ShapeArray).TransactionIndex(true).Build(),
			expected: `{"result":[{"logIndex":"0x11","transactionIndex":"0x0"}]}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := NewProcessor(polyzero.NewLogger(), test.config).Transform(okResponse(input))
			require.NoError(t, err)
			require.Equal(t, test.expected, string(out.Body))
		})
	}
}

func TestProcessor_Idempotent(t *testing.T) {
	inputs := []struct {
		config Config
		body   string
	}{
		{SendTransaction(), `{"jsonrpc":"2.0","id":"abc","result":{"z":1.50,"a":"<tag>&","transactionIndex":"0x3","nested":{"y":[3,2,1],"x":null}}}`},
		{GetFilterChanges(), `{"result":[{"logIndex":"0x1","transactionIndex":"0x2","topics":["0x01","0x02"]}],"jsonrpc":"2.0","id":1}`},
		{GetFilterChanges(), `{"result":[]}`},
	}

	for _, input := range inputs {
		c := require.New(t)
		processor := NewProcessor(polyzero.NewLogger(), input.config)

		once, err := processor.Transform(okResponse(input.body))
		c.NoError(err)
		twice, err := processor.Transform(Args{Response: once})
		c.NoError(err)
		c.Equal(once, twice)
	}
}

func TestProcessor_CanonicalEncoding(t *testing.T) {
	c := require.New(t)

	processor := NewProcessor(polyzero.NewLogger(), NewBuilder(ShapeObject).Build())

	// Key order, whitespace and HTML-sensitive characters must not affect the
	// output, and numbers keep their original digits.
	a, err := processor.Transform(okResponse(`{ "result" : { "b" : "<&>", "a" : 1.10 }, "id" : 1 }`))
	c.NoError(err)
	b, err := processor.Transform(okResponse(`{"id":1,"result":{"a":1.10,"b":"<&>"}}`))
	c.NoError(err)

	c.Equal(`{"id":1,"result":{"a":1.10,"b":"<&>"}}`, string(a.Body))
	c.Equal(a.Body, b.Body)
}

func TestProcessor_Non200IsPassedThrough(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway, http.StatusCreated} {
		c := require.New(t)

		// Deliberately not JSON: the body must not even be parsed.
		body := []byte("<html>  upstream  error </html>")
		args := Args{Response: outcall.Response{
			Status:  status,
			Headers: []outcall.Header{{Name: "Retry-After", Value: "5"}},
			Body:    body,
		}}

		out, err := NewProcessor(polyzero.NewLogger(), GetFilterChanges()).Transform(args)
		c.NoError(err)
		c.Equal(status, out.Status)
		c.Equal(body, out.Body)
		c.Empty(out.Headers)
	}
}

func TestProcessor_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		body   string
	}{
		{name: "invalid JSON", config: SendTransaction(), body: `{"result":`},
		{name: "trailing data", config: SendTransaction(), body: `{"result":{}} {}`},
		{name: "missing result", config: SendTransaction(), body: `{"id":1,"jsonrpc":"2.0"}`},
		{name: "missing result for array", config: GetFilterChanges(), body: `{"id":1,"jsonrpc":"2.0","error":{"code":-32000,"message":"filter not found"}}`},
		{name: "top level array", config: GetFilterChanges(), body: `[{"result":[]}]`},
		{name: "object expected, array found", config: SendTransaction(), body: `{"result":[{"transactionIndex":"0x1"}]}`},
		{name: "object expected, null found", config: SendTransaction(), body: `{"result":null}`},
		{name: "array expected, object found", config: GetFilterChanges(), body: `{"result":{"logIndex":"0x1"}}`},
		{name: "array element is not an object", config: GetFilterChanges(), body: `{"result":[{"logIndex":"0x1"},"0xdeadbeef"]}`},
		{name: "empty body", config: SendTransaction(), body: ``},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := require.New(t)

			out, err := NewProcessor(polyzero.NewLogger(), test.config).Transform(okResponse(test.body))
			c.ErrorIs(err, ErrMalformedResponse)
			c.Nil(out.Body)
		})
	}
}

func TestBuilder(t *testing.T) {
	c := require.New(t)

	builder := NewBuilder(ShapeArray)
	c.Equal(Config{shape: ShapeArray}, builder.Build())

	config := builder.TransactionIndex(true).LogIndex(true).Build()
	c.Equal(ShapeArray, config.Shape())
	c.True(config.TransactionIndex())
	c.True(config.LogIndex())

	// A built Config does not observe later builder calls.
	builder.LogIndex(false)
	c.True(config.LogIndex())

	c.Equal(NewBuilder(ShapeObject).TransactionIndex(true).Build(), SendTransaction())
	c.Equal(GetFilterChanges(), config)
}

func TestParseShape(t *testing.T) {
	c := require.New(t)

	shape, err := ParseShape("Object")
	c.NoError(err)
	c.Equal(ShapeObject, shape)

	shape, err = ParseShape(" array ")
	c.NoError(err)
	c.Equal(ShapeArray, shape)
	c.Equal("array", shape.String())

	_, err = ParseShape("map")
	c.Error(err)
}
