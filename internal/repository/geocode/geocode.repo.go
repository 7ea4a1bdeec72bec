package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/logger"
	"dashboard-cargo/internal/pkg/redis"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

const cacheTTL = 24 * time.Hour

type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

type location struct {
	Coordinate
	PostalCode string `json:"postal_code"`
}

// IRepository resolves coordinates and postal codes for the couriers that
// need them. Both lookups are best effort: the live service is tried first,
// then the static table.
type IRepository interface {
	Coordinates(ctx context.Context, region models.Region) (Coordinate, error)
	PostalCode(ctx context.Context, region models.Region) (string, error)
}

type Repository struct {
	http    helper.IHTTPClient
	baseURL string
	cache   redis.IRedis
}

// NewRepo builds a locator. An empty baseURL disables the live lookup.
func NewRepo(http helper.IHTTPClient, baseURL string, cache redis.IRedis) IRepository {
	return &Repository{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
	}
}

func (r *Repository) Coordinates(ctx context.Context, region models.Region) (Coordinate, error) {
	loc, err := r.locate(ctx, region)
	if err != nil {
		return Coordinate{}, err
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return Coordinate{}, fmt.Errorf("no coordinates for %s, %s", region.Regency, region.Province)
	}
	return loc.Coordinate, nil
}

func (r *Repository) PostalCode(ctx context.Context, region models.Region) (string, error) {
	if region.PostalCode != "" {
		return region.PostalCode, nil
	}
	loc, err := r.locate(ctx, region)
	if err != nil {
		return "", err
	}
	if loc.PostalCode == "" {
		return "", fmt.Errorf("no postal code for %s, %s", region.Regency, region.Province)
	}
	return loc.PostalCode, nil
}

func (r *Repository) locate(ctx context.Context, region models.Region) (location, error) {
	key := "geocode:" + r.key(region.Province) + ":" + r.key(region.Regency) + ":" + r.key(region.District)

	if r.cache != nil {
		if cached, err := r.cache.Get(key); err == nil && cached != "" {
			var loc location
			if json.Unmarshal([]byte(cached), &loc) == nil {
				return loc, nil
			}
		}
	}

	if r.baseURL != "" && r.http != nil {
		loc, err := r.lookup(ctx, region)
		if err == nil {
			if r.cache != nil {
				_ = r.cache.Set(key, loc, cacheTTL)
			}
			return loc, nil
		}
		logger.Warning.Printf("geocode lookup for %s failed, using fallback table: %v", region.Regency, err)
	}

	if loc, ok := r.fallback(region); ok {
		return loc, nil
	}
	return location{}, fmt.Errorf("location unknown for %s, %s", region.Regency, region.Province)
}

func (r *Repository) lookup(ctx context.Context, region models.Region) (location, error) {
	query := strings.Join(lo.Compact([]string{region.District, region.Regency, region.Province}), ", ")
	res, err := r.http.Do(&helper.HTTPRequestPayload{
		Method: helper.GET,
		URL:    r.baseURL + "/geocode",
		Params: map[string]string{"q": query, "country": "id"},
	}, &helper.HTTPRequestConfig{Ctx: ctx})
	if err != nil {
		return location{}, err
	}
	if !res.IsSuccess() {
		return location{}, fmt.Errorf("geocode returned %d: %s", res.StatusCode, helper.MessageFromBody(res, "lookup failed"))
	}

	var body struct {
		location
		Results []location `json:"results"`
	}
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return location{}, fmt.Errorf("geocode response: %w", err)
	}
	if len(body.Results) > 0 {
		return body.Results[0], nil
	}
	if body.Latitude == 0 && body.Longitude == 0 && body.PostalCode == "" {
		return location{}, fmt.Errorf("geocode returned no result for %q", query)
	}
	return body.location, nil
}

// fallback tries the regency first, then the province.
func (r *Repository) fallback(region models.Region) (location, bool) {
	if loc, ok := regencyTable[r.key(region.Regency)]; ok {
		return loc, true
	}
	loc, ok := provinceTable[r.key(region.Province)]
	return loc, ok
}

// key case-folds a name and drops administrative prefixes so "KOTA BANDUNG",
// "Kota Bandung" and "Bandung" share one entry. Casers are not safe for
// concurrent use, so one is built per call.
func (r *Repository) key(name string) string {
	folded := cases.Fold().String(strings.Join(strings.Fields(name), " "))
	for _, prefix := range []string{"kota adm. ", "kota administrasi ", "kota ", "kabupaten ", "kab. ", "kab ", "provinsi "} {
		folded = strings.TrimPrefix(folded, prefix)
	}
	return folded
}

var regencyTable = map[string]location{
	"jakarta pusat":     {Coordinate{-6.1865, 106.8341}, "10110"},
	"jakarta selatan":   {Coordinate{-6.2615, 106.8106}, "12110"},
	"jakarta barat":     {Coordinate{-6.1674, 106.7637}, "11110"},
	"jakarta timur":     {Coordinate{-6.2250, 106.9004}, "13110"},
	"jakarta utara":     {Coordinate{-6.1380, 106.8827}, "14110"},
	"bandung":           {Coordinate{-6.9175, 107.6191}, "40111"},
	"bekasi":            {Coordinate{-6.2383, 106.9756}, "17111"},
	"depok":             {Coordinate{-6.4025, 106.7942}, "16411"},
	"bogor":             {Coordinate{-6.5971, 106.8060}, "16111"},
	"tangerang":         {Coordinate{-6.1783, 106.6319}, "15111"},
	"tangerang selatan": {Coordinate{-6.2886, 106.7179}, "15310"},
	"semarang":          {Coordinate{-6.9667, 110.4167}, "50111"},
	"yogyakarta":        {Coordinate{-7.7956, 110.3695}, "55111"},
	"surabaya":          {Coordinate{-7.2575, 112.7521}, "60111"},
	"malang":            {Coordinate{-7.9666, 112.6326}, "65111"},
	"denpasar":          {Coordinate{-8.6705, 115.2126}, "80111"},
	"medan":             {Coordinate{3.5952, 98.6722}, "20111"},
	"makassar":          {Coordinate{-5.1477, 119.4327}, "90111"},
	"palembang":         {Coordinate{-2.9761, 104.7754}, "30111"},
	"balikpapan":        {Coordinate{-1.2379, 116.8529}, "76111"},
}

var provinceTable = map[string]location{
	"dki jakarta":      {Coordinate{-6.2088, 106.8456}, "10110"},
	"jawa barat":       {Coordinate{-6.9175, 107.6191}, "40111"},
	"banten":           {Coordinate{-6.1200, 106.1503}, "42111"},
	"jawa tengah":      {Coordinate{-6.9667, 110.4167}, "50111"},
	"di yogyakarta":    {Coordinate{-7.7956, 110.3695}, "55111"},
	"jawa timur":       {Coordinate{-7.2575, 112.7521}, "60111"},
	"bali":             {Coordinate{-8.6705, 115.2126}, "80111"},
	"sumatera utara":   {Coordinate{3.5952, 98.6722}, "20111"},
	"sumatera selatan": {Coordinate{-2.9761, 104.7754}, "30111"},
	"sulawesi selatan": {Coordinate{-5.1477, 119.4327}, "90111"},
	"kalimantan timur": {Coordinate{-0.5022, 117.1536}, "75111"},
}
