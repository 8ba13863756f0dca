package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/llm"
	"github.com/papercomputeco/tracememory/pkg/llm/provider/openai"
)

var _ = Describe("OpenAI completer", func() {
	var (
		server  *httptest.Server
		request map[string]any
	)

	BeforeEach(func() {
		request = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &request)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "chatcmpl-1",
				"object": "chat.completion",
				"created": 1735689600,
				"model": "gpt-4o-mini",
				"choices": [{
					"index": 0,
					"message": {"role": "assistant", "content": "Tea it is."},
					"finish_reason": "stop"
				}],
				"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
			}`))
		}))
		DeferCleanup(server.Close)
	})

	It("requires an api key", func() {
		_, err := openai.New(context.Background(), openai.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("completes against a compatible endpoint", func() {
		c, err := openai.New(context.Background(), openai.Config{
			APIKey:  "sk-test-key-123",
			BaseURL: server.URL,
		})
		Expect(err).NotTo(HaveOccurred())

		out, err := c.Complete(context.Background(), llm.NewRequest("system text", "what should I drink?"))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Tea it is."))

		Expect(request["model"]).To(Equal(openai.DefaultModel))
		messages, ok := request["messages"].([]any)
		Expect(ok).To(BeTrue())
		Expect(messages).To(HaveLen(2))
	})

	DescribeTable("maps API failures onto the error taxonomy",
		func(status int, body string, check func(error) bool) {
			failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(body))
			}))
			DeferCleanup(failing.Close)

			c, err := openai.New(context.Background(), openai.Config{
				APIKey:  "sk-test-key-123",
				BaseURL: failing.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = c.Complete(context.Background(), llm.NewRequest("system text", "hello"))
			Expect(err).To(HaveOccurred())
			Expect(check(apperr.ClassifyCompletion("generate reply", err))).To(BeTrue())
		},
		Entry("rate limited", http.StatusTooManyRequests,
			`{"error":{"message":"Rate limit reached for gpt-4o-mini in organization org-1 on requests per min.","type":"requests","param":null,"code":"rate_limit_exceeded"}}`,
			apperr.IsThrottled),
		Entry("bad key", http.StatusUnauthorized,
			`{"error":{"message":"Incorrect API key provided: sk-test. You can find your API key at https://platform.openai.com/account/api-keys.","type":"invalid_request_error","param":null,"code":"invalid_api_key"}}`,
			apperr.IsAuth),
	)
})
