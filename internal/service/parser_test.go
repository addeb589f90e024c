package service

import (
	"context"
	"strings"
	"testing"

	"aihouse/internal/model"
)

func TestParseRentListingWithModel(t *testing.T) {
	client := &fakeAIClient{responses: []string{`{
		"property_type": "rent",
		"community_name": "金华园小区",
		"street_address": "建设路12号",
		"floor_info": "5楼",
		"price": 3000,
		"room_count": "2室1厅",
		"area": 85.5,
		"furniture_appliances": "家具家电齐全",
		"decoration_status": "精装修",
		"contact_phone": "13812345678",
		"confidence": 0.95
	}`}}
	parser := NewPropertyParser(client)

	got := parser.Parse(context.Background(), "金华园小区2室1厅出租，月租金3000元，精装修，家具家电齐全，联系13812345678")

	if got.PropertyType != model.PropertyTypeRent {
		t.Errorf("PropertyType = %v, want rent", got.PropertyType)
	}
	if got.CommunityName == nil || *got.CommunityName != "金华园小区" {
		t.Errorf("CommunityName = %v, want 金华园小区", got.CommunityName)
	}
	if got.Price == nil || *got.Price != 3000 {
		t.Errorf("Price = %v, want 3000", got.Price)
	}
	if got.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", got.Confidence)
	}
	if len(got.ValidationWarnings) != 0 {
		t.Errorf("ValidationWarnings = %v, want none", got.ValidationWarnings)
	}
	if got.IsFallback {
		t.Error("IsFallback = true, want false")
	}
}

func TestParseSaleListingWithModel(t *testing.T) {
	client := &fakeAIClient{responses: []string{"```json\n" + `{
		"property_type": "sale",
		"community_name": "翠湖天地",
		"price": 450,
		"area": 120,
		"confidence": 0.9
	}` + "\n```"}}
	parser := NewPropertyParser(client)

	got := parser.Parse(context.Background(), "翠湖天地120平米出售，总价450万元，满五唯一")

	if got.PropertyType != model.PropertyTypeSale {
		t.Errorf("PropertyType = %v, want sale", got.PropertyType)
	}
	if got.Price == nil || *got.Price != 450 {
		t.Errorf("Price = %v, want 450", got.Price)
	}
	if got.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", got.Confidence)
	}
	if len(got.ValidationWarnings) != 0 {
		t.Errorf("ValidationWarnings = %v, want none", got.ValidationWarnings)
	}
}

func TestParseTypeMismatchReducesConfidence(t *testing.T) {
	// model says sale, text screams rent, price 3000 does not support sale
	client := &fakeAIClient{responses: []string{`{
		"property_type": "sale",
		"community_name": "金华园小区",
		"price": 3000,
		"confidence": 0.8
	}`}}
	parser := NewPropertyParser(client)

	got := parser.Parse(context.Background(), "金华园小区出租，月租金3000元，押一付三")

	if len(got.ValidationWarnings) == 0 {
		t.Fatal("expected a type validation warning")
	}
	// 0.8 - 0.3 type penalty, then 0.2 price penalty (3000 is outside 1-10000? no)
	// sale price 3000 is within 1-10000 so only the type penalty applies
	if got.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", got.Confidence)
	}
}

func TestParsePriceOutOfRangeReducesConfidence(t *testing.T) {
	client := &fakeAIClient{responses: []string{`{
		"property_type": "rent",
		"price": 99,
		"confidence": 0.8
	}`}}
	parser := NewPropertyParser(client)

	got := parser.Parse(context.Background(), "出租单间，月租金99元")

	found := false
	for _, w := range got.ValidationWarnings {
		if strings.Contains(w, "价格验证") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a price warning, got %v", got.ValidationWarnings)
	}
	if got.Confidence != 0.6 {
		t.Errorf("Confidence = %v, want 0.6", got.Confidence)
	}
}

func TestParseConfidenceNeverBelowFloor(t *testing.T) {
	client := &fakeAIClient{responses: []string{`{
		"property_type": "sale",
		"price": 999999,
		"confidence": 0.3
	}`}}
	parser := NewPropertyParser(client)

	// both the type check and the price check fire
	got := parser.Parse(context.Background(), "出租，月租金3000元")

	if got.Confidence < 0.1 || got.Confidence > 1 {
		t.Errorf("Confidence = %v, want within [0.1, 1]", got.Confidence)
	}
	if got.Confidence != 0.1 {
		t.Errorf("Confidence = %v, want floor 0.1", got.Confidence)
	}
}

func TestParseInvalidTypeDefaultsToRent(t *testing.T) {
	client := &fakeAIClient{responses: []string{`{
		"property_type": "condo",
		"price": 3000
	}`}}
	parser := NewPropertyParser(client)

	got := parser.Parse(context.Background(), "出租，月租金3000元")

	if got.PropertyType != model.PropertyTypeRent {
		t.Errorf("PropertyType = %v, want rent default", got.PropertyType)
	}
	if got.IsFallback {
		t.Error("IsFallback = true, want model result")
	}
}

func TestParseFallsBackOnModelError(t *testing.T) {
	client := &fakeAIClient{err: errModelDown}
	parser := NewPropertyParser(client)

	got := parser.Parse(context.Background(), "金华园小区2室1厅出租，月租金3000元，精装修，联系13812345678")

	if !got.IsFallback {
		t.Fatal("IsFallback = false, want fallback result")
	}
	if got.Confidence != 0.3 {
		t.Errorf("Confidence = %v, want 0.3", got.Confidence)
	}
	if len(got.ValidationWarnings) != 1 {
		t.Errorf("ValidationWarnings = %v, want exactly one", got.ValidationWarnings)
	}
	if got.PropertyType != model.PropertyTypeRent {
		t.Errorf("PropertyType = %v, want rent", got.PropertyType)
	}
	if got.CommunityName == nil || *got.CommunityName != "金华园小区" {
		t.Errorf("CommunityName = %v, want 金华园小区", got.CommunityName)
	}
	if got.Price == nil || *got.Price != 3000 {
		t.Errorf("Price = %v, want 3000", got.Price)
	}
	if got.RoomCount == nil || *got.RoomCount != "2室1厅" {
		t.Errorf("RoomCount = %v, want 2室1厅", got.RoomCount)
	}
	if got.DecorationStatus == nil || *got.DecorationStatus != "精装修" {
		t.Errorf("DecorationStatus = %v, want 精装修", got.DecorationStatus)
	}
	if got.ContactPhone == nil || *got.ContactPhone != "13812345678" {
		t.Errorf("ContactPhone = %v, want 13812345678", got.ContactPhone)
	}
}

func TestParseFallsBackOnMalformedOutput(t *testing.T) {
	client := &fakeAIClient{responses: []string{"抱歉，我无法解析这段文本"}}
	parser := NewPropertyParser(client)

	got := parser.Parse(context.Background(), "出售翠湖天地120平米总价450万元")

	if !got.IsFallback {
		t.Fatal("IsFallback = false, want fallback result")
	}
	if got.PropertyType != model.PropertyTypeSale {
		t.Errorf("PropertyType = %v, want sale", got.PropertyType)
	}
	if got.Price == nil || *got.Price != 450 {
		t.Errorf("Price = %v, want 450", got.Price)
	}
}

func TestParseDisabledClientUsesFallback(t *testing.T) {
	client := &fakeAIClient{disabled: true}
	parser := NewPropertyParser(client)

	got := parser.Parse(context.Background(), "某处房源")
	if !got.IsFallback {
		t.Fatal("IsFallback = false, want fallback result")
	}
	if client.calls != 0 {
		t.Errorf("model calls = %d, want 0", client.calls)
	}
}

func TestParseAcceptsJSONWithSurroundingProse(t *testing.T) {
	client := &fakeAIClient{responses: []string{
		"提取结果如下：\n```json\n{\"property_type\": \"rent\", \"price\": 2800, \"confidence\": 0.9}\n```\n请核对。",
	}}
	parser := NewPropertyParser(client)

	got := parser.Parse(context.Background(), "出租两室一厅，月租金2800元")

	if got.IsFallback {
		t.Fatal("IsFallback = true, want model result despite surrounding prose")
	}
	if got.Price == nil || *got.Price != 2800 {
		t.Errorf("Price = %v, want 2800", got.Price)
	}
	if got.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", got.Confidence)
	}
}

func TestKeywordScoreWholeWordBonus(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     int
	}{
		{"standalone keyword earns bonus", "，出租。", []string{"出租"}, 2},
		{"embedded keyword scores once", "出租房源", []string{"出租"}, 1},
		{"keyword at text start standalone", "出租，精装", []string{"出租"}, 2},
		{"digit neighbor blocks bonus", "出租3000", []string{"出租"}, 1},
		{"absent keyword", "出售房源", []string{"出租"}, 0},
		{"ascii keyword standalone", "price 100万元 total", []string{"万元"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keywordScore(tt.text, tt.keywords); got != tt.want {
				t.Errorf("keywordScore(%q, %v) = %d, want %d", tt.text, tt.keywords, got, tt.want)
			}
		})
	}
}

func TestReduceConfidenceRoundsToTwoDecimals(t *testing.T) {
	tests := []struct {
		confidence float64
		penalty    float64
		want       float64
	}{
		{0.8, 0.2, 0.6},
		{0.8, 0.3, 0.5},
		{0.95, 0.3, 0.65},
		{0.3, 0.3, 0.1},
		{0.1, 0.2, 0.1},
	}

	for _, tt := range tests {
		if got := reduceConfidence(tt.confidence, tt.penalty); got != tt.want {
			t.Errorf("reduceConfidence(%v, %v) = %v, want exactly %v", tt.confidence, tt.penalty, got, tt.want)
		}
	}
}

func TestFallbackTypeTieFavorsSale(t *testing.T) {
	got := fallbackExtract("某小区房源信息，联系15012345678")
	if got.PropertyType != model.PropertyTypeSale {
		t.Errorf("PropertyType = %v, want sale on tie", got.PropertyType)
	}
}

func TestFallbackAreaAndFloor(t *testing.T) {
	got := fallbackExtract("翠湖花园3楼，面积88.5平米，简装出售")

	if got.CommunityName == nil || *got.CommunityName != "翠湖花园" {
		t.Errorf("CommunityName = %v, want 翠湖花园", got.CommunityName)
	}
	if got.FloorInfo == nil || *got.FloorInfo != "3楼" {
		t.Errorf("FloorInfo = %v, want 3楼", got.FloorInfo)
	}
	if got.Area == nil || *got.Area != 88.5 {
		t.Errorf("Area = %v, want 88.5", got.Area)
	}
	if got.DecorationStatus == nil || *got.DecorationStatus != "简装" {
		t.Errorf("DecorationStatus = %v, want 简装", got.DecorationStatus)
	}
}
