package service

import (
	"regexp"
	"strconv"
	"strings"

	"aihouse/internal/model"
)

// Rule-based extraction used when the model path fails or is unavailable.
// Pure regex and keyword work over the raw text; results carry a fixed low
// confidence and an explanatory warning.

const fallbackConfidence = 0.3

const fallbackWarning = "模型解析失败，已使用规则提取基础信息，建议人工核对结果"

var (
	communityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([^，。！？\s]+小区)`),
		regexp.MustCompile(`([^，。！？\s]+花园)`),
		regexp.MustCompile(`([^，。！？\s]+公寓)`),
		regexp.MustCompile(`([^，。！？\s]+大厦)`),
	}

	floorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+楼)`),
		regexp.MustCompile(`(\d+层)`),
		regexp.MustCompile(`(第\d+层)`),
	}

	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+(?:\.\d+)?)万元`),
		regexp.MustCompile(`(\d+(?:\.\d+)?)元/月`),
		regexp.MustCompile(`月租金?(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`租金(\d+(?:\.\d+)?)`),
	}

	roomPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+室\d+厅\d+卫)`),
		regexp.MustCompile(`(\d+室\d+厅)`),
		regexp.MustCompile(`(\d+房\d+厅)`),
	}

	areaPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+(?:\.\d+)?)平[米方]`),
		regexp.MustCompile(`(\d+(?:\.\d+)?)㎡`),
		regexp.MustCompile(`面积(\d+(?:\.\d+)?)`),
	}

	decorationKeywords = []string{"精装修", "简装", "毛坯", "豪装", "中装"}

	phonePattern = regexp.MustCompile(`(?:^|\D)(1[3-9]\d{9})(?:\D|$)`)
)

// fallbackExtract builds a ParsedListing from the text using regex and
// keyword rules only.
func fallbackExtract(text string) *model.ParsedListing {
	return &model.ParsedListing{
		PropertyType:       guessPropertyType(text),
		CommunityName:      matchFirst(text, communityPatterns),
		FloorInfo:          matchFirst(text, floorPatterns),
		Price:              extractPrice(text),
		RoomCount:          matchFirst(text, roomPatterns),
		Area:               extractArea(text),
		DecorationStatus:   extractDecoration(text),
		ContactPhone:       extractPhone(text),
		Confidence:         fallbackConfidence,
		ValidationWarnings: []string{fallbackWarning},
		IsFallback:         true,
	}
}

// guessPropertyType counts rent vs sale keywords; ties favor sale
func guessPropertyType(text string) model.PropertyType {
	rentCount := countKeywords(text, rentKeywords)
	saleCount := countKeywords(text, saleKeywords)
	if rentCount > saleCount {
		return model.PropertyTypeRent
	}
	return model.PropertyTypeSale
}

func countKeywords(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

func matchFirst(text string, patterns []*regexp.Regexp) *string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			v := m[1]
			return &v
		}
	}
	return nil
}

// extractPrice looks for unit-tagged price patterns first, then falls back
// to the largest bare number in the text.
func extractPrice(text string) *float64 {
	for _, re := range pricePatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return &v
			}
		}
	}

	max := 0.0
	found := false
	for _, m := range numberRe.FindAllString(text, -1) {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			if !found || v > max {
				max = v
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	return &max
}

func extractArea(text string) *float64 {
	for _, re := range areaPatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return &v
			}
		}
	}
	return nil
}

func extractDecoration(text string) *string {
	for _, kw := range decorationKeywords {
		if strings.Contains(text, kw) {
			v := kw
			return &v
		}
	}
	return nil
}

// extractPhone pulls an 11-digit mobile number, ignoring digits embedded in
// longer sequences.
func extractPhone(text string) *string {
	if m := phonePattern.FindStringSubmatch(text); len(m) > 1 {
		v := m[1]
		return &v
	}
	return nil
}
