package rate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/logger"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	TagCheapest = "CHEAPEST"
	TagFastest  = "FASTEST"

	reasonNoService = "no service available for this route"
)

type normalizer func(v enum.VendorEnum, raw json.RawMessage) ([]models.ShippingOption, error)

// normalizers has one entry per PayloadKind. A vendor whose kind is missing
// here is reported as a failure, and the test suite checks none is.
var normalizers = map[enum.PayloadKind]normalizer{
	enum.PAYLOAD_JNT_LIST:     normalizeJNT,
	enum.PAYLOAD_PAXEL:        normalizePaxel,
	enum.PAYLOAD_FLAT:         normalizeFlat,
	enum.PAYLOAD_GOSEND:       normalizeGosend,
	enum.PAYLOAD_SERVICE_LIST: normalizeServiceList,
}

// Normalize merges every outcome into one option list. It never fails:
// failed or malformed vendors end up in Failures and contribute nothing.
// It is pure, so the same outcomes always give the same result.
func Normalize(outcomes []models.VendorOutcome) models.RateResult {
	result := models.RateResult{
		Options:  []models.ShippingOption{},
		Failures: []models.VendorFailure{},
	}

	for _, o := range outcomes {
		if !o.OK() {
			result.Failures = append(result.Failures, models.VendorFailure{Vendor: o.Vendor, Reason: o.Reason()})
			continue
		}

		fn, ok := normalizers[o.Vendor.PayloadKind()]
		if !ok {
			result.Failures = append(result.Failures, models.VendorFailure{Vendor: o.Vendor, Reason: "unsupported vendor"})
			continue
		}

		options, err := fn(o.Vendor, o.Raw)
		if err != nil {
			logger.Z().Warn("malformed vendor payload", zap.String("vendor", o.Vendor.ToString()), zap.Error(err))
			result.Failures = append(result.Failures, models.VendorFailure{Vendor: o.Vendor, Reason: "malformed payload: " + err.Error()})
			continue
		}

		options = lo.Filter(options, func(opt models.ShippingOption, _ int) bool {
			return opt.BasePrice > 0
		})
		if len(options) == 0 {
			result.Failures = append(result.Failures, models.VendorFailure{Vendor: o.Vendor, Reason: reasonNoService})
			continue
		}
		result.Options = append(result.Options, options...)
	}

	tag(result.Options)
	result.NoService = len(result.Options) == 0
	return result
}

// tag marks the cheapest and the fastest option; the earlier option wins a tie.
// Options without a known duration are never fastest.
func tag(options []models.ShippingOption) {
	if len(options) == 0 {
		return
	}

	cheapest, fastest := 0, -1
	for i, opt := range options {
		if opt.BasePrice < options[cheapest].BasePrice {
			cheapest = i
		}
		if opt.Duration.Text == "" {
			continue
		}
		if fastest < 0 || faster(opt.Duration, options[fastest].Duration) {
			fastest = i
		}
	}

	options[cheapest].Tags = append(options[cheapest].Tags, TagCheapest)
	if fastest >= 0 {
		options[fastest].Tags = append(options[fastest].Tags, TagFastest)
	}
}

func faster(a, b models.DurationEstimate) bool {
	if a.MaxDays != b.MaxDays {
		return a.MaxDays < b.MaxDays
	}
	return a.MinDays < b.MinDays
}

// amount accepts a price as a JSON number or a numeric string and rounds
// half up to whole rupiah.
type amount int64

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*a = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return fmt.Errorf("invalid amount %q", s)
	}
	*a = amount(d.Round(0).IntPart())
	return nil
}

func dayRange(minDays, maxDays int) models.DurationEstimate {
	switch {
	case maxDays <= 0:
		return models.DurationEstimate{}
	case minDays == maxDays:
		return models.DurationEstimate{Text: fmt.Sprintf("%d days", maxDays), MinDays: minDays, MaxDays: maxDays}
	default:
		return models.DurationEstimate{Text: fmt.Sprintf("%d-%d days", minDays, maxDays), MinDays: minDays, MaxDays: maxDays}
	}
}

func displayName(v enum.VendorEnum, service string) string {
	service = strings.TrimSpace(service)
	if service == "" {
		return v.DisplayName()
	}
	return v.DisplayName() + " " + service
}

func markFirstRecommended(options []models.ShippingOption) {
	for i := range options {
		if options[i].BasePrice > 0 {
			options[i].Recommended = true
			return
		}
	}
}

type jntEntry struct {
	Cost        amount `json:"cost"`
	Name        string `json:"name"`
	ProductType string `json:"productType"`
}

var jntDuration = map[enum.VendorEnum]models.DurationEstimate{
	enum.JNT_EXPRESS: {Text: "2-3 days", MinDays: 2, MaxDays: 3},
	enum.JNT_CARGO:   {Text: "3-5 days", MinDays: 3, MaxDays: 5},
}

func normalizeJNT(v enum.VendorEnum, raw json.RawMessage) ([]models.ShippingOption, error) {
	var entries []jntEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}

	options := make([]models.ShippingOption, 0, len(entries))
	for _, e := range entries {
		service := firstNonEmpty(e.ProductType, e.Name)
		options = append(options, models.ShippingOption{
			ID:          v.OptionID(service),
			Vendor:      v,
			ServiceCode: service,
			DisplayName: displayName(v, firstNonEmpty(e.Name, e.ProductType)),
			BasePrice:   int64(e.Cost),
			Duration:    jntDuration[v],
		})
	}
	options = lo.UniqBy(options, func(o models.ShippingOption) string { return o.ID })
	markFirstRecommended(options)
	return options, nil
}

type paxelPayload struct {
	FixedPrice amount `json:"fixed_price"`
	TimeDetail []struct {
		Service  string `json:"service"`
		Pickup   string `json:"pickup"`
		Delivery string `json:"delivery"`
	} `json:"time_detail"`
}

var paxelServices = []struct {
	key      string
	service  string
	name     string
	duration models.DurationEstimate
}{
	{"same_day", "same day", "Same Day", models.DurationEstimate{Text: "Same day", MinDays: 0, MaxDays: 0}},
	{"next_day", "next day", "Next Day", models.DurationEstimate{Text: "Next day", MinDays: 1, MaxDays: 1}},
}

func normalizePaxel(v enum.VendorEnum, raw json.RawMessage) ([]models.ShippingOption, error) {
	var p paxelPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	windows := make(map[string]string, len(p.TimeDetail))
	for _, td := range p.TimeDetail {
		key := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(td.Service)))
		if _, seen := windows[key]; seen {
			continue
		}
		windows[key] = strings.TrimSpace(strings.Join(lo.Compact([]string{td.Pickup, td.Delivery}), " / "))
	}

	var options []models.ShippingOption
	for _, svc := range paxelServices {
		window, ok := windows[svc.key]
		if !ok {
			continue
		}
		duration := svc.duration
		if window != "" {
			duration.Text = duration.Text + " (" + window + ")"
		}
		options = append(options, models.ShippingOption{
			ID:          v.OptionID(svc.service),
			Vendor:      v,
			ServiceCode: strings.ToUpper(svc.key),
			DisplayName: displayName(v, svc.name),
			BasePrice:   int64(p.FixedPrice),
			Duration:    duration,
			Recommended: svc.key == "same_day",
		})
	}

	if len(options) == 0 {
		options = append(options, models.ShippingOption{
			ID:          v.OptionID(""),
			Vendor:      v,
			ServiceCode: "REGULAR",
			DisplayName: displayName(v, ""),
			BasePrice:   int64(p.FixedPrice),
		})
	}
	return options, nil
}

type flatPayload struct {
	ShippingCost  amount          `json:"shipping_cost"`
	EstimatedDays json.RawMessage `json:"estimated_days"`
	Product       string          `json:"product"`
	ServiceType   string          `json:"service_type"`
}

// normalizeFlat reads the single priced service Lion and SAP return. A list
// is accepted too and each entry handled the same way.
func normalizeFlat(v enum.VendorEnum, raw json.RawMessage) ([]models.ShippingOption, error) {
	var payloads []flatPayload
	if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		if err := json.Unmarshal(raw, &payloads); err != nil {
			return nil, err
		}
	} else {
		var p flatPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		payloads = append(payloads, p)
	}

	var options []models.ShippingOption
	for _, p := range payloads {
		if p.ShippingCost <= 0 {
			continue
		}
		service := firstNonEmpty(p.Product, p.ServiceType)
		var duration models.DurationEstimate
		if days := parseDays(p.EstimatedDays); days > 0 {
			duration = dayRange(days, days+2)
		}
		options = append(options, models.ShippingOption{
			ID:          v.OptionID(service),
			Vendor:      v,
			ServiceCode: service,
			DisplayName: displayName(v, service),
			BasePrice:   int64(p.ShippingCost),
			Duration:    duration,
		})
	}
	return options, nil
}

type gosendMethod struct {
	Serviceable bool  `json:"serviceable"`
	Active      *bool `json:"active"`
	Price       struct {
		TotalPrice amount `json:"total_price"`
	} `json:"price"`
	Description string `json:"shipment_method_description"`
}

var gosendMethods = []struct {
	key      string
	service  string
	name     string
	duration models.DurationEstimate
}{
	{"Instant", "instant", "Instant", models.DurationEstimate{Text: "1-3 hours"}},
	{"SameDay", "same day", "Same Day", models.DurationEstimate{Text: "6-8 hours"}},
}

func normalizeGosend(v enum.VendorEnum, raw json.RawMessage) ([]models.ShippingOption, error) {
	var methods map[string]gosendMethod
	if err := json.Unmarshal(raw, &methods); err != nil {
		return nil, err
	}

	var options []models.ShippingOption
	for _, m := range gosendMethods {
		method, ok := methods[m.key]
		if !ok || !method.Serviceable || method.Price.TotalPrice <= 0 {
			continue
		}
		if method.Active != nil && !*method.Active {
			continue
		}
		duration := m.duration
		if d := strings.TrimSpace(method.Description); d != "" {
			duration.Text = d
		}
		options = append(options, models.ShippingOption{
			ID:          v.OptionID(m.service),
			Vendor:      v,
			ServiceCode: m.key,
			DisplayName: displayName(v, m.name),
			BasePrice:   int64(method.Price.TotalPrice),
			Duration:    duration,
			Recommended: m.key == "Instant",
		})
	}
	return options, nil
}

var (
	costKeys    = []string{"cost", "totalFee", "total_fee", "price", "tariff"}
	nameKeys    = []string{"service_name", "serviceName", "name", "product_name"}
	serviceKeys = []string{"service_type", "serviceCode", "service_code", "service", "productCode"}
	etdKeys     = []string{"etd", "estimation", "estimated_days"}
)

func normalizeServiceList(v enum.VendorEnum, raw json.RawMessage) ([]models.ShippingOption, error) {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}

	options := make([]models.ShippingOption, 0, len(entries))
	for _, e := range entries {
		var price amount
		if rawCost, ok := pick(e, costKeys); ok {
			if err := json.Unmarshal(rawCost, &price); err != nil {
				return nil, err
			}
		}
		name := pickString(e, nameKeys)
		service := firstNonEmpty(pickString(e, serviceKeys), name)
		days := parseETD(pickString(e, etdKeys))

		options = append(options, models.ShippingOption{
			ID:          v.OptionID(service),
			Vendor:      v,
			ServiceCode: service,
			DisplayName: displayName(v, firstNonEmpty(name, service)),
			BasePrice:   int64(price),
			Duration:    days,
		})
	}
	options = lo.UniqBy(options, func(o models.ShippingOption) string { return o.ID })
	markFirstRecommended(options)
	return options, nil
}

func pick(entry map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := entry[k]; ok && strings.TrimSpace(string(raw)) != "null" {
			return raw, true
		}
	}
	return nil, false
}

func pickString(entry map[string]json.RawMessage, keys []string) string {
	raw, ok := pick(entry, keys)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	// numbers are accepted as their literal text
	return strings.TrimSpace(string(raw))
}

var etdPattern = regexp.MustCompile(`(\d+)(?:\s*-\s*(\d+))?`)

// parseETD reads "2-4", "3 HARI" or "1 - 2 days".
func parseETD(s string) models.DurationEstimate {
	m := etdPattern.FindStringSubmatch(s)
	if m == nil {
		if strings.TrimSpace(s) == "" {
			return models.DurationEstimate{}
		}
		return models.DurationEstimate{Text: strings.TrimSpace(s)}
	}
	minDays, _ := strconv.Atoi(m[1])
	maxDays := minDays
	if m[2] != "" {
		maxDays, _ = strconv.Atoi(m[2])
	}
	if maxDays < minDays {
		minDays, maxDays = maxDays, minDays
	}
	return dayRange(minDays, maxDays)
}

func parseDays(raw json.RawMessage) int {
	var n amount
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil {
		return parseETD(strings.Trim(string(raw), `"`)).MinDays
	}
	return int(n)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
