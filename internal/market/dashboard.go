package market

import "time"

// KPIData is the headline indicator strip.
type KPIData struct {
	CPI                float64   `json:"cpi"`
	CPIChange          float64   `json:"cpi_change"`
	GDPQoQ             float64   `json:"gdp_qoq"`
	GDPYoY             float64   `json:"gdp_yoy"`
	Unemployment       float64   `json:"unemployment"`
	UnemploymentChange float64   `json:"unemployment_change"`
	BaseRate           float64   `json:"base_rate"`
	BaseRateChange     float64   `json:"base_rate_change"`
	USDKRW             float64   `json:"usdkrw"`
	USDKRWChange       float64   `json:"usdkrw_change"`
	SPX                float64   `json:"spx"`
	SPXChange          float64   `json:"spx_change"`
	KOSPI              float64   `json:"kospi"`
	KOSPIChange        float64   `json:"kospi_change"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TrendsData holds the dashboard trend charts.
type TrendsData struct {
	CPISeries          []Point `json:"cpi_series"`
	UnemploymentSeries []Point `json:"unemployment_series"`
	RateSeries         []Point `json:"rate_series"`
	GDPSeries          []Point `json:"gdp_series"`
}

// NewsItem is one headline.
type NewsItem struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
}

// MockKPIs returns fixed headline values stamped with now.
func MockKPIs(now time.Time) KPIData {
	return KPIData{
		CPI:                110.5,
		CPIChange:          2.3,
		GDPQoQ:             0.6,
		GDPYoY:             2.2,
		Unemployment:       3.4,
		UnemploymentChange: -0.1,
		BaseRate:           3.50,
		BaseRateChange:     0.0,
		USDKRW:             1335.50,
		USDKRWChange:       5.20,
		SPX:                4783.45,
		SPXChange:          0.85,
		KOSPI:              2655.20,
		KOSPIChange:        1.12,
		UpdatedAt:          now,
	}
}

// MockTrends returns 36 months of CPI, unemployment and policy rate plus a
// quarterly GDP series ending at now.
func MockTrends(now time.Time) TrendsData {
	end := monthStart(now)
	start := end.AddDate(0, -35, 0)

	var trends TrendsData
	for i := 0; i < 36; i++ {
		month := start.AddDate(0, i, 0)
		date := month.Format("2006-01")

		trends.CPISeries = append(trends.CPISeries, Point{
			Date:  date,
			Value: round2(100.0 + float64(i)*0.3 + noise("CPI_INDEX", month, 0.5)),
		})
		trends.UnemploymentSeries = append(trends.UnemploymentSeries, Point{
			Date:  date,
			Value: round2(3.5 + noise("UNEMPLOYMENT", month, 0.5)),
		})

		rate := 3.5
		switch {
		case i < 12:
			rate = 0.5
		case i < 24:
			rate = 1.25
		}
		trends.RateSeries = append(trends.RateSeries, Point{Date: date, Value: rate})

		if i%3 == 0 {
			trends.GDPSeries = append(trends.GDPSeries, Point{
				Date:  date,
				Value: round2(2.25 + noise("GDP_YOY", month, 1.25)),
			})
		}
	}
	return trends
}

// MockNews returns a fixed set of headlines.
func MockNews() []NewsItem {
	return []NewsItem{
		{
			Title:       "한국은행, 기준금리 3.50% 동결",
			Summary:     "한국은행 금융통화위원회가 기준금리를 현 수준에서 유지하기로 결정했다. 물가 안정세와 경기 회복을 고려한 조치.",
			URL:         "https://example.com/news/1",
			Source:      "한국은행",
			PublishedAt: "2024-01-15",
		},
		{
			Title:       "12월 소비자물가 2.3% 상승",
			Summary:     "지난달 소비자물가지수가 전년 동월 대비 2.3% 상승했다. 식료품과 에너지 가격 상승이 주요 원인.",
			URL:         "https://example.com/news/2",
			Source:      "통계청",
			PublishedAt: "2024-01-05",
		},
		{
			Title:       "4분기 GDP 성장률 0.6% 기록",
			Summary:     "지난해 4분기 국내총생산(GDP)이 전분기 대비 0.6% 성장했다. 수출 회복과 민간소비 증가가 기여.",
			URL:         "https://example.com/news/3",
			Source:      "한국은행",
			PublishedAt: "2024-01-25",
		},
		{
			Title:       "실업률 3.4%로 소폭 개선",
			Summary:     "12월 실업률이 3.4%를 기록하며 전월 대비 0.1%p 개선됐다. 고용시장 회복세 지속.",
			URL:         "https://example.com/news/4",
			Source:      "통계청",
			PublishedAt: "2024-01-12",
		},
		{
			Title:       "원달러 환율 1,335원대 등락",
			Summary:     "원달러 환율이 1,330~1,340원 사이에서 등락을 거듭하고 있다. 글로벌 금리 전망 불확실성이 변동 요인.",
			URL:         "https://example.com/news/5",
			Source:      "서울외국환중개",
			PublishedAt: "2024-01-20",
		},
		{
			Title:       "코스피 2,655선 회복",
			Summary:     "국내 증시가 상승세를 보이며 코스피가 2,655선을 회복했다. 반도체·자동차 업종이 상승 주도.",
			URL:         "https://example.com/news/6",
			Source:      "한국거래소",
			PublishedAt: "2024-01-18",
		},
	}
}
