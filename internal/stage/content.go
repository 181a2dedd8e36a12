package stage

import (
	"path"
	"strings"

	"github.com/yja/firesim/internal/model"
)

// FactPool is the mix of facts and opinions shown in the SITUATION stage.
var FactPool = []string{
	"8월 4일 오전 10:30분경 화재 발생",
	"생산팀 박계장 전치 4주 화상 입음",
	"화재로 인해 공장 가동 전면 중단됨",
	"납기일은 8월 12일로 일주일 남음",
	"최근 공장 주변에 야생 고양이가 자주 출몰함",
	"박계장은 평소 안전모를 잘 쓰지 않음 (의견)",
	"3공장 사고 시점에 남은 생산량은 4,000 unit",
	"소화기가 작동하지 않아 초기 진압 실패",
	"구내식당 메뉴가 맛이 없어서 불만이 많음",
}

// GuideFactCount is the number of facts the learning guide asks for.
const GuideFactCount = 3

// Scenario is the INTRO briefing.
var Scenario = struct {
	Date             string
	Location         string
	Incident         string
	Victim           string
	ProductionImpact string
	Client           string
	Deadline         string
}{
	Date:             "8월 4일 목요일 오전 10:30",
	Location:         "우리산업(주) 제3공장",
	Incident:         "화재 발생 및 인명 사고",
	Victim:           "생산팀 박계장 (전치 4주 화상)",
	ProductionImpact: "생산 중단 (4,000 unit 부족)",
	Client:           "코끼리건설(주) 납품 기한 8월 12일",
	Deadline:         "1시간 내 보고서 작성",
}

// StepLabels are the progress-bar labels.
var StepLabels = map[model.Step]string{
	model.StepIntro:      "시나리오 브리핑",
	model.StepSituation:  "1. 현상 파악",
	model.StepDefinition: "2. 문제 정의",
	model.StepAnalysis:   "3. 원인 분석",
	model.StepSolution:   "4. 해결 방안",
	model.StepReport:     "5. 보고서 제출",
}

// Guide is the learning guide shown when a stage opens.
type Guide struct {
	Title       string
	Goal        string
	Concept     string
	Description string
}

// Guides holds the learning guide of every working stage.
var Guides = map[model.Step]Guide{
	model.StepSituation: {
		Title:       "팩트 체크 (Fact Finding)",
		Goal:        "주관적 의견(Opinion)을 배제하고 객관적 사실(Fact)만을 수집한다.",
		Concept:     "3현주의 (현장, 현물, 현상)",
		Description: "사건 현장에는 수많은 정보가 섞여 있습니다. 문제 해결의 첫 단추는 '진짜 사실'을 가려내는 것입니다. 거짓 정보나 주관적 추측에 속지 마십시오.",
	},
	model.StepDefinition: {
		Title:       "문제 정의 (Gap Analysis)",
		Goal:        "현재 상태(As-Is)와 바람직한 상태(To-Be)의 차이를 명확히 정의한다.",
		Concept:     "Problem = Ideal - Current",
		Description: "막연히 '불이 났다'는 문제가 아닙니다. 화재로 인해 '무엇이' 달성되지 못하고 있는지를 구체적으로 서술해야 해결의 실마리가 보입니다.",
	},
	model.StepAnalysis: {
		Title:       "원인 분석 (Root Cause)",
		Goal:        "현상에 대한 대책이 아닌, 근본 원인을 찾아 제거한다.",
		Concept:     "5 Whys & Logic Tree",
		Description: "왜 화재가 발생했나요? 왜 소화기는 작동하지 않았나요? 꼬리에 꼬리를 무는 질문(Why)을 통해 숨겨진 진짜 원인을 찾아내십시오.",
	},
	model.StepSolution: {
		Title:       "해결책 수립 (Action Plan)",
		Goal:        "단기적인 수습책과 장기적인 재발방지책을 구분하여 수립한다.",
		Concept:     "대책의 3요소 (기술적, 관리적, 교육적)",
		Description: "당장 급한 불(납기 준수)을 끄는 것만큼이나, 다시는 같은 사고가나지 않도록 시스템을 고치는 것(재발 방지)이 중요합니다.",
	},
}

// GuideFor returns the guide for step, if it has one.
func GuideFor(step model.Step) (Guide, bool) {
	g, ok := Guides[step]
	return g, ok
}

// InfoCards is the full pool of evidence images, four groups of eighteen.
var InfoCards = []string{
	"https://i.ibb.co/xtVbbr1r/1-1.jpg", "https://i.ibb.co/ymRNcvbh/1-2.jpg", "https://i.ibb.co/TBrSLsZq/1-3.jpg",
	"https://i.ibb.co/4RFt7W5g/1-4.jpg", "https://i.ibb.co/wFWGqbKr/1-5.jpg", "https://i.ibb.co/rRz8PcLZ/1-6.jpg",
	"https://i.ibb.co/yBKkH1xt/1-7.jpg", "https://i.ibb.co/3yNDjQZh/1-8.jpg", "https://i.ibb.co/Z6FCK3nM/1-9.jpg",
	"https://i.ibb.co/fVW1frCN/1-10.jpg", "https://i.ibb.co/vxK6HQrT/1-11.jpg", "https://i.ibb.co/7xK7vWsT/1-12.jpg",
	"https://i.ibb.co/LXmKvDNh/1-13.jpg", "https://i.ibb.co/bMJnZC3S/1-14.jpg", "https://i.ibb.co/5gQqKKDZ/1-15.jpg",
	"https://i.ibb.co/JWknnX40/1-16.jpg", "https://i.ibb.co/KzyMWypP/1-17.jpg", "https://i.ibb.co/VWN42Sqc/1-18.jpg",
	"https://i.ibb.co/Xxr8kGFz/2-1.png", "https://i.ibb.co/vvKLbsDW/2-2.png", "https://i.ibb.co/GfbKDQ9N/2-3.png",
	"https://i.ibb.co/TxvZBWTh/2-4.png", "https://i.ibb.co/C3y6SZyD/2-5.png", "https://i.ibb.co/tPptp82F/2-6.png",
	"https://i.ibb.co/4qdvzfw/2-7.png", "https://i.ibb.co/3mJY6wDj/2-8.png", "https://i.ibb.co/vvr2wcWs/2-9.png",
	"https://i.ibb.co/Y7h5T8B2/2-10.png", "https://i.ibb.co/YGQysZD/2-11.png", "https://i.ibb.co/4R33TmnV/2-12.png",
	"https://i.ibb.co/8DsgjyH9/2-13.png", "https://i.ibb.co/gMpb2zWx/2-14.png", "https://i.ibb.co/PsdHMz44/2-15.png",
	"https://i.ibb.co/3yJMM93h/2-16.png", "https://i.ibb.co/bT7wGnW/2-17.png", "https://i.ibb.co/B5ZzGNdn/2-18.png",
	"https://i.ibb.co/FLzgXBDc/3-1.jpg", "https://i.ibb.co/ZbXwMkX/3-2.jpg", "https://i.ibb.co/gb8TdqCz/3-3.jpg",
	"https://i.ibb.co/Mywkm26H/3-4.jpg", "https://i.ibb.co/spgPX41z/3-5.jpg", "https://i.ibb.co/cSpnsmqg/3-6.jpg",
	"https://i.ibb.co/Z6GL6h7T/3-7.jpg", "https://i.ibb.co/VYQt245P/3-8.jpg", "https://i.ibb.co/n88f9dQf/3-9.jpg",
	"https://i.ibb.co/zTR4Kv0s/3-10.jpg", "https://i.ibb.co/ZR22RyXg/3-11.jpg", "https://i.ibb.co/PGKrNv0v/3-12.jpg",
	"https://i.ibb.co/MyfK6MNn/3-13.jpg", "https://i.ibb.co/BKVQYRVS/3-14.jpg", "https://i.ibb.co/Y7wSGbrS/3-15.jpg",
	"https://i.ibb.co/Tx31BJWq/3-16.jpg", "https://i.ibb.co/NgCm4Bbv/3-17.jpg", "https://i.ibb.co/Y7BnGjtK/3-18.jpg",
	"https://i.ibb.co/6501PHF/4-1.png", "https://i.ibb.co/Kp8sbZYF/4-2.png", "https://i.ibb.co/XZcsc8qc/4-3.png",
	"https://i.ibb.co/KxkwCwb0/4-4.png", "https://i.ibb.co/yFF8Zmbz/4-5.png", "https://i.ibb.co/nqDYc1GN/4-6.png",
	"https://i.ibb.co/R4NhQ7Gs/4-7.png", "https://i.ibb.co/nMsJy9TS/4-8.png", "https://i.ibb.co/YTJVNVVc/4-9.png",
	"https://i.ibb.co/S4zdtsKX/4-10.png", "https://i.ibb.co/23fCDk7s/4-11.png", "https://i.ibb.co/hP316DK/4-12.png",
	"https://i.ibb.co/TxM4784Y/4-13.png", "https://i.ibb.co/N5QhsZT/4-14.png", "https://i.ibb.co/20KVXQWr/4-15.png",
	"https://i.ibb.co/wN1KftHY/4-16.png", "https://i.ibb.co/ccBGmLSY/4-17.png", "https://i.ibb.co/pg1x953/4-18.png",
}

// InfoCardsForTeam returns the contiguous share of InfoCards dealt to one
// team. The first len(InfoCards)%totalTeams teams get one extra card.
func InfoCardsForTeam(teamID, totalTeams int) []string {
	if totalTeams < 1 || teamID < 1 || teamID > totalTeams {
		return nil
	}
	base := len(InfoCards) / totalTeams
	remainder := len(InfoCards) % totalTeams

	start := 0
	for i := 1; i < teamID; i++ {
		start += base
		if i <= remainder {
			start++
		}
	}
	count := base
	if teamID <= remainder {
		count++
	}
	return InfoCards[start : start+count]
}

// CardLabel returns the short label of an info card URL, e.g. "2-14".
func CardLabel(url string) string {
	name := path.Base(url)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}
