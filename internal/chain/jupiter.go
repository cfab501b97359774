// Package chain implements the Solana/Jupiter swap capability and the
// one-shot token-launch record. Adapted from
// internal/trading/jupiter_client.go: the quote/swap/token HTTP calls
// and lamport conversion helpers are kept near-verbatim (they are
// already a thin, correct wrapper over the public Jupiter v6 API);
// what changes is the addition of simulation mode, a TrendingTracker
// (one instance shared by every agent in cmd/main.go), and wiring into the Trading Safety Gate's allowed
// token sets.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client handles Solana DEX operations via the Jupiter aggregator API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

type Quote struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int             `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`
	ContextSlot          uint64          `json:"contextSlot"`
	TimeTaken            float64         `json:"timeTaken"`
}

type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

type SwapRequest struct {
	QuoteResponse     Quote  `json:"quoteResponse"`
	UserPublicKey     string `json:"userPublicKey"`
	WrapAndUnwrapSol  bool   `json:"wrapAndUnwrapSol"`
	UseSharedAccounts bool   `json:"useSharedAccounts"`
}

type SwapResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

type TokenInfo struct {
	Address  string   `json:"address"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Decimals int      `json:"decimals"`
	LogoURI  string   `json:"logoURI,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// NewClient creates a new Jupiter DEX client.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL:    "https://quote-api.jup.ag/v6",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
	}
}

func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	url := fmt.Sprintf("%s/quote?inputMint=%s&outputMint=%s&amount=%d&slippageBps=%d",
		c.baseURL, inputMint, outputMint, amount, slippageBps)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("quote API error %d: %s", resp.StatusCode, string(body))
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("decode quote response: %w", err)
	}
	return &quote, nil
}

func (c *Client) GetSwapTransaction(ctx context.Context, quote *Quote, userPublicKey string) (*SwapResponse, error) {
	swapReq := SwapRequest{
		QuoteResponse:     *quote,
		UserPublicKey:     userPublicKey,
		WrapAndUnwrapSol:  true,
		UseSharedAccounts: true,
	}
	payload, err := json.Marshal(swapReq)
	if err != nil {
		return nil, fmt.Errorf("marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("build swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get swap transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("swap API error %d: %s", resp.StatusCode, string(body))
	}

	var swapResp SwapResponse
	if err := json.NewDecoder(resp.Body).Decode(&swapResp); err != nil {
		return nil, fmt.Errorf("decode swap response: %w", err)
	}
	return &swapResp, nil
}

func (c *Client) GetTokens(ctx context.Context) ([]TokenInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://token.jup.ag/all", nil)
	if err != nil {
		return nil, fmt.Errorf("build tokens request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get tokens: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tokens API error %d: %s", resp.StatusCode, string(body))
	}

	var tokens []TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("decode tokens response: %w", err)
	}
	return tokens, nil
}

// ConvertToLamports converts a SOL amount to lamports (1 SOL = 1e9
// lamports).
func ConvertToLamports(solAmount decimal.Decimal) uint64 {
	lamports := solAmount.Mul(decimal.NewFromInt(1_000_000_000))
	return uint64(lamports.IntPart())
}

// ConvertFromLamports converts lamports to a SOL amount.
func ConvertFromLamports(lamports uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(lamports)).Div(decimal.NewFromInt(1_000_000_000))
}

// Common token addresses on Solana.
const (
	SOLAddress  = "So11111111111111111111111111111111111111112"
	USDCAddress = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTAddress = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)
