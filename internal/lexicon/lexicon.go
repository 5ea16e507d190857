// Package lexicon holds the read-only word lists and pattern catalogues the
// analysis stages are built on: stop words, name-suffix dictionaries,
// relation patterns, event verbs, turning-point cues, emotion keywords and
// state-change keywords. A Lexicon is loaded once and passed by value (as a
// pointer to an immutable struct) into every stage constructor; nothing here
// is global mutable state.
package lexicon

import "strings"

// RelationPattern is one entry in the relation-indicative pattern
// catalogue. Fragments are matched in order inside a single
// sentence; the first two character names in that sentence become the
// relation's From and To, in sentence order.
type RelationPattern struct {
	// Fragments are literal substrings that must all appear, in order, for
	// the pattern to fire (e.g. ["的", "父亲", "是"] for "X 的 父亲 是 Y").
	Fragments []string
	Type      string // models.RelationType value, kept as string to avoid an import cycle
	// Directed reports whether From/To order matters for the relation
	// (kin and master-disciple patterns are directed, as are "爱上" and
	// "恨…入骨"; the friend patterns are not).
	Directed bool
	Weight   float64
}

// EventVerbClass is a weighted bucket of verbs that all map to the same
// EventType and importance contribution.
type EventVerbClass struct {
	Verbs     []string
	EventType string // models.EventType value
	Weight    float64
}

// StateEffect is one state-change lexicon entry: a keyword's signed delta
// on one axis.
type StateEffect struct {
	Keyword string
	Axis    string // models.StateAxis value
	Delta   float64
}

// EmotionWord is one entry of the six-category emotion lexicon.
type EmotionWord struct {
	Word     string
	Category string // models.EmotionCategory value
	Weight   float64
}

// Lexicon bundles every read-only word list the analysis stages consult.
type Lexicon struct {
	StopWords map[string]struct{}

	// LocationSuffixes are place-name suffixes (省, 市, 山, …); TextProcessor's
	// POS tagger tags a token ending in one of them as a place name.
	LocationSuffixes []string

	// Surnames is the common single-character Chinese surname table used by
	// TextProcessor's POS tagger to mark a two- or three-character token as
	// person-name-like.
	Surnames map[string]struct{}

	// PersonTitles are honorific/kinship words (公子, 夫人, 先生, …) added to
	// TextProcessor's segmentation dictionary so they segment as whole
	// words; they do not change a token's POS tag.
	PersonTitles []string

	AppositivePatterns [][2]string // [0]="，也就是" style connective, [1] unused placeholder kept for symmetry with RelationPattern

	RelationPatterns []RelationPattern

	// HonorificRelations maps a dialogue honorific/kinship term of address
	// to the relation type it implies.
	HonorificRelations map[string]string

	EventVerbClasses    []EventVerbClass
	TurningPointCues    []string
	ConsequenceCues     []string

	EmotionWords []EmotionWord

	StateEffects []StateEffect

	// AbsoluteTimeCues and RelativeTimeCues are substrings that mark a
	// sentence as carrying a time reference. Extraction returns the matched
	// substring verbatim; these lists are recognition cues, not a parser.
	AbsoluteTimeCues []string
	RelativeTimeCues []string
}

// Default returns the built-in lexicon. There is no external lexicon file
// format anywhere in the pack to ground a loader on, so the catalogues are
// compiled in as Go literals and returned from a constructor, matching how
// the stop-word-style fixed tables are declared package-level elsewhere in
// the corpus.
func Default() *Lexicon {
	return &Lexicon{
		StopWords: stopWordSet(),

		Surnames: surnameSet(),

		LocationSuffixes: []string{
			"省", "市", "山", "城", "府", "宫", "殿", "寺", "楼", "阁", "岛", "谷", "镇", "村", "关", "原", "川", "湖", "海",
		},

		PersonTitles: []string{
			"公子", "夫人", "先生", "少爷", "姑娘", "大人", "师父", "师兄", "师姐", "师弟", "师妹", "道长", "上人", "真人",
		},

		AppositivePatterns: [][2]string{
			{"，也就是", ""},
			{"，即", ""},
			{"，就是", ""},
		},

		RelationPatterns: []RelationPattern{
			{Fragments: []string{"的", "父亲", "是"}, Type: "kin", Directed: true, Weight: 5},
			{Fragments: []string{"的", "母亲", "是"}, Type: "kin", Directed: true, Weight: 5},
			{Fragments: []string{"的", "儿子", "是"}, Type: "kin", Directed: true, Weight: 5},
			{Fragments: []string{"的", "女儿", "是"}, Type: "kin", Directed: true, Weight: 5},
			{Fragments: []string{"的", "兄长", "是"}, Type: "kin", Directed: true, Weight: 5},
			{Fragments: []string{"的", "妹妹", "是"}, Type: "kin", Directed: true, Weight: 5},
			{Fragments: []string{"与", "是", "朋友"}, Type: "friend", Directed: false, Weight: 5},
			{Fragments: []string{"和", "是", "朋友"}, Type: "friend", Directed: false, Weight: 5},
			{Fragments: []string{"拜", "为", "师"}, Type: "master-disciple", Directed: true, Weight: 5},
			{Fragments: []string{"收", "为", "徒"}, Type: "master-disciple", Directed: true, Weight: 5},
			{Fragments: []string{"与", "结为", "夫妻"}, Type: "lover", Directed: false, Weight: 5},
			{Fragments: []string{"爱上"}, Type: "lover", Directed: true, Weight: 4},
			{Fragments: []string{"与", "是", "仇人"}, Type: "enemy", Directed: false, Weight: 5},
			{Fragments: []string{"恨", "入骨"}, Type: "enemy", Directed: true, Weight: 4},
			{Fragments: []string{"与", "同朝", "为官"}, Type: "colleague", Directed: false, Weight: 4},
		},

		HonorificRelations: map[string]string{
			"父亲": "kin",
			"母亲": "kin",
			"师父": "master-disciple",
			"师兄": "master-disciple",
			"夫君": "lover",
			"娘子": "lover",
		},

		EventVerbClasses: []EventVerbClass{
			{Verbs: []string{"见", "遇", "逢"}, EventType: "meeting", Weight: 0.5},
			{Verbs: []string{"战", "斗", "杀", "伤"}, EventType: "conflict", Weight: 0.9},
			{Verbs: []string{"救", "助"}, EventType: "cooperation", Weight: 0.7},
			{Verbs: []string{"逃", "归", "别", "辞"}, EventType: "parting", Weight: 0.6},
			{Verbs: []string{"定", "成亲", "拜师"}, EventType: "turning-point", Weight: 0.8},
			{Verbs: []string{"发现", "识破", "查明"}, EventType: "discovery", Weight: 0.6},
		},

		TurningPointCues: []string{"突然", "忽然", "自此", "从此", "此时"},
		ConsequenceCues:  []string{"于是", "因此", "导致", "结果"},

		EmotionWords: []EmotionWord{
			{Word: "开心", Category: "joy", Weight: 1},
			{Word: "高兴", Category: "joy", Weight: 1},
			{Word: "欢喜", Category: "joy", Weight: 1},
			{Word: "笑", Category: "joy", Weight: 0.6},
			{Word: "悲伤", Category: "sadness", Weight: 1},
			{Word: "难过", Category: "sadness", Weight: 1},
			{Word: "哭", Category: "sadness", Weight: 0.8},
			{Word: "泪", Category: "sadness", Weight: 0.6},
			{Word: "愤怒", Category: "anger", Weight: 1},
			{Word: "恼怒", Category: "anger", Weight: 1},
			{Word: "怒", Category: "anger", Weight: 0.8},
			{Word: "恨", Category: "anger", Weight: 0.7},
			{Word: "害怕", Category: "fear", Weight: 1},
			{Word: "恐惧", Category: "fear", Weight: 1},
			{Word: "惊恐", Category: "fear", Weight: 0.9},
			{Word: "畏惧", Category: "fear", Weight: 0.8},
			{Word: "惊讶", Category: "surprise", Weight: 1},
			{Word: "震惊", Category: "surprise", Weight: 1},
			{Word: "诧异", Category: "surprise", Weight: 0.8},
			{Word: "厌恶", Category: "disgust", Weight: 1},
			{Word: "嫌弃", Category: "disgust", Weight: 0.8},
			{Word: "恶心", Category: "disgust", Weight: 1},
		},

		StateEffects: []StateEffect{
			{Keyword: "受伤", Axis: "health", Delta: -0.2},
			{Keyword: "重伤", Axis: "health", Delta: -0.4},
			{Keyword: "痊愈", Axis: "health", Delta: 0.3},
			{Keyword: "中毒", Axis: "health", Delta: -0.3},
			{Keyword: "开心", Axis: "mood", Delta: 0.15},
			{Keyword: "高兴", Axis: "mood", Delta: 0.15},
			{Keyword: "悲伤", Axis: "mood", Delta: -0.2},
			{Keyword: "绝望", Axis: "mood", Delta: -0.35},
			{Keyword: "突破", Axis: "ability", Delta: 0.25},
			{Keyword: "顿悟", Axis: "ability", Delta: 0.25},
			{Keyword: "武功尽失", Axis: "ability", Delta: -0.4},
			{Keyword: "称帝", Axis: "social_standing", Delta: 0.4},
			{Keyword: "封侯", Axis: "social_standing", Delta: 0.3},
			{Keyword: "革职", Axis: "social_standing", Delta: -0.3},
			{Keyword: "流放", Axis: "social_standing", Delta: -0.35},
		},

		AbsoluteTimeCues: []string{"某年", "某月", "正月", "三月初三", "元旦", "中秋", "除夕"},
		RelativeTimeCues: []string{"三日后", "数日后", "次日", "次年", "翌日", "多年后", "转眼"},
	}
}

func surnameSet() map[string]struct{} {
	names := []string{
		"李", "王", "张", "刘", "陈", "杨", "黄", "赵", "周", "吴",
		"徐", "孙", "马", "朱", "胡", "郭", "何", "高", "林", "罗",
		"郑", "梁", "谢", "宋", "唐", "许", "韩", "冯", "邓", "曹",
		"彭", "曾", "萧", "田", "董", "袁", "潘", "于", "蒋", "蔡",
		"余", "杜", "叶", "程", "苏", "魏", "吕", "丁", "沈", "任",
		"姚", "卢", "姜", "崔", "钟", "谭", "陆", "汪", "范", "金",
		"石", "廖", "贾", "夏", "韦", "付", "方", "白", "邹", "孟",
		"熊", "秦", "邱", "江", "尹", "薛", "闫", "段", "雷", "侯",
		"龙", "史", "陶", "黎", "贺", "顾", "毛", "郝", "龚", "邵",
		"万", "钱", "严", "欧阳", "上官", "司马", "诸葛", "独孤", "慕容", "东方",
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func stopWordSet() map[string]struct{} {
	words := []string{
		"的", "了", "和", "是", "在", "我", "有", "他", "这", "中", "大", "来", "上", "个",
		"国", "们", "到", "说", "也", "要", "就", "出", "会", "可", "对", "生", "能", "而",
		"子", "那", "得", "为", "下", "与", "不", "之", "以", "其", "之后", "之前",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsStopWord reports whether w should be filtered from token streams on
// request.
func (l *Lexicon) IsStopWord(w string) bool {
	_, ok := l.StopWords[w]
	return ok
}

// LooksLikeSurname reports whether the leading rune(s) of token match a
// known single- or double-character surname.
func (l *Lexicon) LooksLikeSurname(token string) bool {
	runes := []rune(token)
	if len(runes) >= 2 {
		if _, ok := l.Surnames[string(runes[:2])]; ok {
			return true
		}
	}
	if len(runes) >= 1 {
		if _, ok := l.Surnames[string(runes[:1])]; ok {
			return true
		}
	}
	return false
}

// HasLocationSuffix reports whether name ends in one of the configured
// place-name suffixes.
func (l *Lexicon) HasLocationSuffix(name string) bool {
	for _, suf := range l.LocationSuffixes {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}
	return false
}
