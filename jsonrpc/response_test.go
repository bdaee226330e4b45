package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func rawResult(s string) *json.RawMessage {
	raw := json.RawMessage(s)
	return &raw
}

func TestResponse_Validate(t *testing.T) {
	tests := []struct {
		name     string
		reqID    ID
		response Response
		wantErr  bool
	}{
		{
			name:  "should validate successfully with correct version and result",
			reqID: IDFromInt(1),
			response: Response{
				ID:      IDFromInt(1),
				Version: Version2,
				Result:  rawResult(`"Test123"`),
			},
		},
		{
			name:  "should validate successfully with null result",
			reqID: IDFromInt(1),
			response: Response{
				ID:      IDFromInt(1),
				Version: Version2,
				Result:  rawResult(`null`),
			},
		},
		{
			name:  "should validate successfully with error response",
			reqID: IDFromStr("1"),
			response: Response{
				ID:      IDFromStr("1"),
				Version: Version2,
				Error:   &ResponseError{Code: -32000, Message: "Server error"},
			},
		},
		{
			name:  "should fail validation with incorrect version",
			reqID: IDFromInt(1),
			response: Response{
				ID:      IDFromInt(1),
				Version: "1.0",
				Result:  rawResult(`true`),
			},
			wantErr: true,
		},
		{
			name:  "should fail validation with both result and error",
			reqID: IDFromInt(1),
			response: Response{
				ID:      IDFromInt(1),
				Version: Version2,
				Result:  rawResult(`true`),
				Error:   &ResponseError{Code: 1, Message: "error"},
			},
			wantErr: true,
		},
		{
			name:  "should fail validation with neither result nor error",
			reqID: IDFromInt(1),
			response: Response{
				ID:      IDFromInt(1),
				Version: Version2,
			},
			wantErr: true,
		},
		{
			name:  "should fail validation with incorrect id",
			reqID: IDFromInt(2),
			response: Response{
				ID:      IDFromInt(1),
				Version: Version2,
				Result:  rawResult(`true`),
			},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.response.Validate(test.reqID)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestResponse_Unmarshal(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantResult  string
		wantErrCode int
		isError     bool
	}{
		{
			name:       "object result is kept raw",
			payload:    `{"id":1,"jsonrpc":"2.0","result":{"transactionIndex":"0x10"}}`,
			wantResult: `{"transactionIndex":"0x10"}`,
		},
		{
			name:       "null result is kept as null",
			payload:    `{"id":1,"jsonrpc":"2.0","result":null}`,
			wantResult: `null`,
		},
		{
			name:        "error object is decoded",
			payload:     `{"id":1,"jsonrpc":"2.0","error":{"code":-32601,"message":"Method not found"}}`,
			wantErrCode: -32601,
			isError:     true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var resp Response
			require.NoError(t, json.Unmarshal([]byte(test.payload), &resp))
			require.NoError(t, resp.Validate(IDFromInt(1)))
			require.Equal(t, test.isError, resp.IsError())

			if test.isError {
				require.Equal(t, test.wantErrCode, resp.Error.Code)
				require.Nil(t, resp.GetResultAsBytes())
				require.Contains(t, resp.Error.Error(), "Method not found")
				return
			}
			require.JSONEq(t, test.wantResult, string(resp.GetResultAsBytes()))
		})
	}
}
