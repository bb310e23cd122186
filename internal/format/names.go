package format

// Lookup tables per language. Month tables are indexed by month-1, weekday
// tables by the Saturday-first index, ordinal tables by day-1.

type names struct {
	months        [12]string
	monthsShort   [12]string
	weekdays      [7]string
	weekdaysShort [7]string
	seasons       [4]string
	ordinals      [31]string
	amShort       [2]string
	amLong        [2]string
	today         string
	yesterday     string
	tomorrow      string
	daysAgo       string
	daysLater     string
}

var faNames = names{
	months: [12]string{
		"فروردین", "اردیبهشت", "خرداد", "تیر", "مرداد", "شهریور",
		"مهر", "آبان", "آذر", "دی", "بهمن", "اسفند",
	},
	monthsShort: [12]string{
		"فرو", "ارد", "خرد", "تیر", "مرد", "شهر",
		"مهر", "آبا", "آذر", "دی", "بهم", "اسف",
	},
	weekdays: [7]string{
		"شنبه", "یکشنبه", "دوشنبه", "سه‌شنبه", "چهارشنبه", "پنجشنبه", "جمعه",
	},
	weekdaysShort: [7]string{"ش", "ی", "د", "س", "چ", "پ", "ج"},
	seasons:       [4]string{"بهار", "تابستان", "پاییز", "زمستان"},
	ordinals: [31]string{
		"یکم", "دوم", "سوم", "چهارم", "پنجم", "ششم", "هفتم", "هشتم", "نهم", "دهم",
		"یازدهم", "دوازدهم", "سیزدهم", "چهاردهم", "پانزدهم", "شانزدهم", "هفدهم",
		"هجدهم", "نوزدهم", "بیستم", "بیست و یکم", "بیست و دوم", "بیست و سوم",
		"بیست و چهارم", "بیست و پنجم", "بیست و ششم", "بیست و هفتم", "بیست و هشتم",
		"بیست و نهم", "سی‌ام", "سی و یکم",
	},
	amShort:   [2]string{"ق.ظ", "ب.ظ"},
	amLong:    [2]string{"قبل از ظهر", "بعد از ظهر"},
	today:     "امروز",
	yesterday: "دیروز",
	tomorrow:  "فردا",
	daysAgo:   "%d روز پیش",
	daysLater: "%d روز بعد",
}

var enNames = names{
	months: [12]string{
		"Farvardin", "Ordibehesht", "Khordad", "Tir", "Mordad", "Shahrivar",
		"Mehr", "Aban", "Azar", "Dey", "Bahman", "Esfand",
	},
	monthsShort: [12]string{
		"Far", "Ord", "Kho", "Tir", "Mor", "Sha",
		"Meh", "Aba", "Aza", "Dey", "Bah", "Esf",
	},
	weekdays: [7]string{
		"Saturday", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday",
	},
	weekdaysShort: [7]string{"Sat", "Sun", "Mon", "Tue", "Wed", "Thu", "Fri"},
	seasons:       [4]string{"Spring", "Summer", "Autumn", "Winter"},
	ordinals: [31]string{
		"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth",
		"ninth", "tenth", "eleventh", "twelfth", "thirteenth", "fourteenth",
		"fifteenth", "sixteenth", "seventeenth", "eighteenth", "nineteenth",
		"twentieth", "twenty-first", "twenty-second", "twenty-third",
		"twenty-fourth", "twenty-fifth", "twenty-sixth", "twenty-seventh",
		"twenty-eighth", "twenty-ninth", "thirtieth", "thirty-first",
	},
	amShort:   [2]string{"am", "pm"},
	amLong:    [2]string{"AM", "PM"},
	today:     "today",
	yesterday: "yesterday",
	tomorrow:  "tomorrow",
	daysAgo:   "%d days ago",
	daysLater: "%d days later",
}

func namesFor(lang string) *names {
	if lang == LangFa {
		return &faNames
	}
	return &enNames
}

// MonthName returns the Jalali month name in lang, or "" when month is out
// of range.
func MonthName(month int, lang string) string {
	if month < 1 || month > 12 {
		return ""
	}
	return namesFor(lang).months[month-1]
}

// WeekdayName returns the name of a Saturday-first weekday index.
func WeekdayName(idx int, lang string) string {
	if idx < 0 || idx > 6 {
		return ""
	}
	return namesFor(lang).weekdays[idx]
}
