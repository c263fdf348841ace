package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PDNemesis/Simple.OData.Client/internal/command"
	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/keys"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
	"github.com/PDNemesis/Simple.OData.Client/internal/testutil"
)

const productsCSDL = `<?xml version="1.0" encoding="utf-8"?>
<edmx:Edmx Version="4.0" xmlns:edmx="http://docs.oasis-open.org/odata/ns/edmx">
  <edmx:DataServices>
    <Schema Namespace="NS" xmlns="http://docs.oasis-open.org/odata/ns/edm">
      <EntityType Name="Product">
        <Key><PropertyRef Name="ProductID"/></Key>
        <Property Name="ProductID" Type="Edm.Int32" Nullable="false"/>
        <Property Name="ProductName" Type="Edm.String"/>
      </EntityType>
      <EntityContainer Name="Container">
        <EntitySet Name="Products" EntityType="NS.Product"/>
      </EntityContainer>
    </Schema>
  </edmx:DataServices>
</edmx:Edmx>`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base := []Option{
		WithHTTPClient(srv.Client()),
		WithIDGenerator(testutil.NewSequenceIDGenerator("req")),
		WithMetrics(nil),
	}
	c, err := New(srv.URL+"/svc/", append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func textOf(t *testing.T, d command.Descriptor) command.Text {
	t.Helper()
	text, err := command.NewBuilder(testutil.Northwind()).Build(context.Background(), d)
	require.NoError(t, err)
	return text
}

func TestDoGet(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"value":[{"ProductID":1,"ProductName":"Chai"}]}`)
	})

	text := textOf(t, command.From("Products").FilterText("ProductName eq 'Chai'").Descriptor())
	resp, err := c.Do(context.Background(), Request{Command: text})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/svc/Products", got.URL.Path)
	assert.Equal(t, "$filter=ProductName%20eq%20'Chai'", got.URL.RawQuery)
	assert.Equal(t, "ProductName eq 'Chai'", got.URL.Query().Get("$filter"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "4.0", got.Header.Get("OData-Version"))
	assert.Equal(t, "req-1", got.Header.Get(HeaderRequestID))
	assert.Empty(t, got.Header.Get("Content-Type"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-1", resp.RequestID)

	decoded, err := resp.Decode()
	require.NoError(t, err)
	rows := decoded["value"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("1"), rows[0].(map[string]any)["ProductID"])
}

func TestDoKeyPath(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	text := textOf(t, command.From("Order_Details").Key(keys.Of(keys.P("OrderID", 1), keys.P("ProductID", 2))).Operation(command.Delete, nil).Descriptor())
	resp, err := c.Do(context.Background(), Request{Operation: command.Delete, Command: text})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "/svc/Order_Details(OrderID=1,ProductID=2)", path)
}

func TestDoBody(t *testing.T) {
	var method, contentType string
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	})

	payload := map[string]any{"ProductName": "Chai"}
	text := textOf(t, command.From("Products").Operation(command.Insert, payload).Descriptor())
	_, err := c.Do(context.Background(), Request{Operation: command.Insert, Command: text, Body: payload})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]any{"ProductName": "Chai"}, body)
}

func TestHooks(t *testing.T) {
	var seen []string
	c := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			seen = append(seen, "server:"+r.Header.Get("Authorization"))
			w.Header().Set("X-Trace", "abc")
			_, _ = io.WriteString(w, `{}`)
		},
		WithBeforeRequest(func(r *http.Request) {
			seen = append(seen, "before:"+r.Header.Get(HeaderRequestID))
			r.Header.Set("Authorization", "Bearer token")
		}),
		WithAfterResponse(func(r *http.Response) {
			seen = append(seen, "after:"+r.Header.Get("X-Trace"))
		}),
	)

	_, err := c.Do(context.Background(), Request{Command: command.Text{Segments: []string{"Products"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"before:req-1", "server:Bearer token", "after:abc"}, seen)
}

func TestProtocolV3Headers(t *testing.T) {
	var header http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
	}, WithProtocol(ir.V3), WithHeader("X-Tenant", "north"))

	_, err := c.Do(context.Background(), Request{Command: command.Text{Segments: []string{"Products"}}})
	require.NoError(t, err)
	assert.Equal(t, "3.0", header.Get("DataServiceVersion"))
	assert.Equal(t, "3.0", header.Get("MaxDataServiceVersion"))
	assert.Empty(t, header.Get("OData-Version"))
	assert.Equal(t, "north", header.Get("X-Tenant"))
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"not found"}}`, http.StatusNotFound)
	})

	resp, err := c.Do(context.Background(), Request{Command: command.Text{Segments: []string{"Products(99)"}}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)
	assert.Equal(t, "req-1", serr.RequestID)
	assert.Contains(t, serr.Body, "not found")
	assert.Contains(t, err.Error(), "status 404")
}

func TestDurationAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {},
		WithClock(testutil.NewStepClock(10*time.Millisecond)),
		WithLogger(logger),
	)

	resp, err := c.Do(context.Background(), Request{Command: command.Text{Segments: []string{"Products"}}})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, resp.Duration)
	assert.Contains(t, buf.String(), "msg=exchange")
	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Contains(t, buf.String(), "status=200")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/svc/Missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}, WithMetrics(metrics))

	for _, seg := range []string{"Products", "Products", "Missing"} {
		_, _ = c.Do(context.Background(), Request{Command: command.Text{Segments: []string{seg}}})
	}

	assert.Equal(t, 2.0, promtest.ToFloat64(metrics.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.requests.WithLabelValues("GET", "404")))
	assert.Equal(t, 1, promtest.CollectAndCount(metrics.latency))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c, err := New(url, WithMetrics(metrics), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Command: command.Text{Segments: []string{"Products"}}})
	require.Error(t, err)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.requests.WithLabelValues("GET", "error")))
}

func TestFetchMetadataLazily(t *testing.T) {
	var fetches atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/svc/$metadata", r.URL.Path)
		assert.Equal(t, "application/xml", r.Header.Get("Accept"))
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, productsCSDL)
	})

	resolver := c.Resolver()
	assert.False(t, resolver.Loaded())
	assert.Equal(t, int32(0), fetches.Load())

	r, err := resolver.Resolve(context.Background(), "Products")
	require.NoError(t, err)
	assert.Equal(t, []string{"ProductID"}, r.Keys)

	_, err = resolver.Resolve(context.Background(), "Nope")
	assert.True(t, odataerr.IsResourceNotFound(err))
	assert.Equal(t, int32(1), fetches.Load())

	text, err := command.NewBuilder(resolver).Build(context.Background(),
		command.From("Products").Key(keys.Single(1)).Descriptor())
	require.NoError(t, err)
	assert.Equal(t, "Products(1)", text.String())
}

func TestFetchMetadataError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<not-edmx")
	})
	_, err := c.FetchMetadata(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch metadata")
}

func TestDecode(t *testing.T) {
	empty := &Response{}
	m, err := empty.Decode()
	require.NoError(t, err)
	assert.Nil(t, m)

	array := &Response{Body: []byte(`[1,2]`)}
	_, err = array.Decode()
	assert.Error(t, err)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	c, err := New("http://example.test/odata/", WithMetrics(nil))
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/odata", c.BaseURL())
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14])
}
