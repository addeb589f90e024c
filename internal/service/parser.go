package service

import (
	"context"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"aihouse/internal/model"
	"aihouse/internal/utils"
)

// PropertyParser extracts a structured listing from free-text descriptions.
// The model path is tried first; validation downgrades confidence instead of
// failing, and a rule-based fallback takes over when the model path produces
// nothing. Parse always returns a result.
type PropertyParser struct {
	client AIClient
}

// NewPropertyParser creates a new property text parser
func NewPropertyParser(client AIClient) *PropertyParser {
	return &PropertyParser{client: client}
}

// Rent/sale indicator keywords used for type-consistency scoring.
var (
	rentKeywords = []string{
		"租", "出租", "月租", "押金", "月付", "租金", "租房",
		"押一付三", "押二付一", "押一付一", "包水电", "中介费",
	}
	saleKeywords = []string{
		"售", "出售", "万元", "总价", "首付", "按揭", "售房", "买房",
		"房价", "单价", "平米", "贷款", "过户", "税费",
	}
)

// Reference price ranges. Used to flag suspicious values, never to reject
// user input.
const (
	rentPriceMin = 100
	rentPriceMax = 50000
	salePriceMin = 1
	salePriceMax = 10000
)

// Parse extracts a ParsedListing from text. It never fails: model errors,
// timeouts and malformed responses all degrade to the rule-based fallback.
func (p *PropertyParser) Parse(ctx context.Context, text string) *model.ParsedListing {
	text = strings.TrimSpace(text)

	if p.client == nil || !p.client.IsEnabled() {
		log.Printf("LLM client unavailable, using fallback extraction")
		return fallbackExtract(text)
	}

	result, err := p.parseWithModel(ctx, text)
	if err != nil {
		log.Printf("Model parsing failed: %v, using fallback extraction", err)
		return fallbackExtract(text)
	}

	p.validate(text, result)
	return result
}

// llmListingResponse mirrors the JSON object the extraction prompt requests
type llmListingResponse struct {
	PropertyType        string   `json:"property_type"`
	CommunityName       *string  `json:"community_name"`
	StreetAddress       *string  `json:"street_address"`
	FloorInfo           *string  `json:"floor_info"`
	Price               *float64 `json:"price"`
	RoomCount           *string  `json:"room_count"`
	Area                *float64 `json:"area"`
	FurnitureAppliances *string  `json:"furniture_appliances"`
	DecorationStatus    *string  `json:"decoration_status"`
	ContactPhone        *string  `json:"contact_phone"`
	Confidence          *float64 `json:"confidence"`
}

func (p *PropertyParser) parseWithModel(ctx context.Context, text string) (*model.ParsedListing, error) {
	req := ChatCompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: propertyParsingSystemPrompt},
			{Role: "user", Content: propertyParsingPrompt(text)},
		},
		Temperature: 0.1,
		MaxTokens:   1000,
	}

	content, err := p.client.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	// The prompt asks for bare JSON but models sometimes wrap it in a fence
	// or surrounding prose
	var parsed llmListingResponse
	if err := utils.ParseAIJSON(content, &parsed); err != nil {
		return nil, err
	}

	propertyType := model.PropertyType(parsed.PropertyType)
	if !propertyType.Valid() {
		propertyType = model.PropertyTypeRent
	}

	confidence := 0.8
	if parsed.Confidence != nil {
		confidence = clamp01(*parsed.Confidence)
	}

	return &model.ParsedListing{
		PropertyType:        propertyType,
		CommunityName:       parsed.CommunityName,
		StreetAddress:       parsed.StreetAddress,
		FloorInfo:           parsed.FloorInfo,
		Price:               parsed.Price,
		RoomCount:           parsed.RoomCount,
		Area:                parsed.Area,
		FurnitureAppliances: parsed.FurnitureAppliances,
		DecorationStatus:    parsed.DecorationStatus,
		ContactPhone:        parsed.ContactPhone,
		Confidence:          confidence,
		ValidationWarnings:  []string{},
		IsFallback:          false,
	}, nil
}

// validate applies the type-consistency and price-range checks, appending
// warnings and reducing confidence. Confidence only ever decreases, with a
// floor of 0.1.
func (p *PropertyParser) validate(text string, result *model.ParsedListing) {
	rentScore := keywordScore(text, rentKeywords)
	saleScore := keywordScore(text, saleKeywords)

	keywordsAgree := rentScore >= saleScore
	if result.PropertyType == model.PropertyTypeSale {
		keywordsAgree = saleScore >= rentScore
	}

	if !keywordsAgree && priceContext(text, result.PropertyType) != priceSupports {
		if result.PropertyType == model.PropertyTypeRent {
			result.ValidationWarnings = append(result.ValidationWarnings,
				"类型验证: 房屋类型可能识别错误，建议检查是否为售房")
		} else {
			result.ValidationWarnings = append(result.ValidationWarnings,
				"类型验证: 房屋类型可能识别错误，建议检查是否为租房")
		}
		result.Confidence = reduceConfidence(result.Confidence, 0.3)
	}

	if result.Price != nil {
		price := *result.Price
		if result.PropertyType == model.PropertyTypeRent {
			if price < rentPriceMin || price > rentPriceMax {
				result.ValidationWarnings = append(result.ValidationWarnings,
					"价格验证: 月租金较为特殊，请确认单位是否正确（常见范围 100-50000 元）")
				result.Confidence = reduceConfidence(result.Confidence, 0.2)
			}
		} else {
			if price < salePriceMin || price > salePriceMax {
				result.ValidationWarnings = append(result.ValidationWarnings,
					"价格验证: 售价较为特殊，请确认单位是否正确（常见范围 1-10000 万元）")
				result.Confidence = reduceConfidence(result.Confidence, 0.2)
			}
		}
	}
}

// keywordScore scores text against a keyword list: one point per substring
// match plus a bonus point when the match stands alone as a word.
func keywordScore(text string, keywords []string) int {
	score := 0
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		score++
		if isWordBounded(lower, idx, len(kw)) {
			score++
		}
	}
	return score
}

// isWordBounded reports whether the match at s[start:start+length] is not
// flanked by letters or digits. Boundaries are checked per rune, so CJK
// keywords embedded in longer words do not count as standalone.
func isWordBounded(s string, start, length int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end := start + length; end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

type priceContextState int

const (
	priceNeutral priceContextState = iota
	priceSupports
	priceContradicts
)

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// priceContext examines the largest numeric literal in the text and reports
// whether it supports or contradicts the stated property type.
func priceContext(text string, propertyType model.PropertyType) priceContextState {
	max := 0.0
	found := false
	for _, m := range numberRe.FindAllString(text, -1) {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	if !found {
		return priceNeutral
	}

	if propertyType == model.PropertyTypeRent {
		switch {
		case max >= 500 && max <= 20000:
			return priceSupports
		case max > 100000:
			return priceContradicts
		}
	} else {
		switch {
		case max >= 300000:
			return priceSupports
		case max <= 50000:
			return priceContradicts
		}
	}
	return priceNeutral
}

// reduceConfidence subtracts a fixed penalty with a floor of 0.1. The
// result is rounded to two decimals so penalties stack to clean values.
func reduceConfidence(confidence, penalty float64) float64 {
	reduced := math.Round((confidence-penalty)*100) / 100
	if reduced < 0.1 {
		return 0.1
	}
	return reduced
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
