package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ymori/dinnerbot/internal/models"
	"github.com/ymori/dinnerbot/internal/recommend"
)

const (
	// DefaultBaseURL is the OpenWeather current-weather endpoint
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	// DefaultTimeout bounds one weather lookup
	DefaultTimeout = 10 * time.Second
	// cacheTTL is how long one observation stays fresh
	cacheTTL = 10 * time.Minute

	// Defaults used when the provider is unreachable. A recommendation must
	// not fail because the weather is unknown.
	fallbackTemp        = 20
	fallbackDescription = "晴れ"
)

// Client fetches current weather by coordinates, with an optional Redis
// cache in front of the provider. All failures degrade to a mild-and-clear
// default observation.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient creates a weather client. cache may be nil to disable caching.
func NewClient(apiKey string, cache *redis.Client, logger *zap.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// currentWeatherResponse is the subset of the provider payload we read.
type currentWeatherResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current returns the weather at the given coordinates enriched with season
// and cooking context. It never returns an error; lookup failures yield the
// documented default observation.
func (c *Client) Current(ctx context.Context, lat, lon float64) *models.Weather {
	cacheKey := fmt.Sprintf("weather:%.4f:%.4f", lat, lon)

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var w models.Weather
			if err := json.Unmarshal(cached, &w); err == nil {
				return &w
			}
		}
	}

	w := c.fetch(ctx, lat, lon)

	if c.cache != nil {
		if data, err := json.Marshal(w); err == nil {
			if err := c.cache.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
				c.logger.Debug("weather cache write failed", zap.Error(err))
			}
		}
	}

	return w
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) *models.Weather {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	params.Set("lang", "ja")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return c.fallback()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("weather lookup failed", zap.Error(err))
		return c.fallback()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("weather lookup returned non-OK status",
			zap.Int("status", resp.StatusCode))
		return c.fallback()
	}

	var payload currentWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("weather payload decode failed", zap.Error(err))
		return c.fallback()
	}

	description := fallbackDescription
	if len(payload.Weather) > 0 && payload.Weather[0].Description != "" {
		description = payload.Weather[0].Description
	}

	season := recommend.Season(c.now())
	return &models.Weather{
		Temp:           payload.Main.Temp,
		FeelsLike:      payload.Main.FeelsLike,
		Humidity:       payload.Main.Humidity,
		WindSpeed:      payload.Wind.Speed,
		Description:    description,
		Season:         season,
		CookingContext: recommend.CookingContext(payload.Main.Temp, description, payload.Main.Humidity, season),
	}
}

// fallback is the observation used when the provider cannot be reached.
func (c *Client) fallback() *models.Weather {
	season := recommend.Season(c.now())
	return &models.Weather{
		Temp:           fallbackTemp,
		FeelsLike:      fallbackTemp,
		Humidity:       50,
		Description:    fallbackDescription,
		Season:         season,
		CookingContext: recommend.CookingContext(fallbackTemp, fallbackDescription, 50, season),
	}
}
