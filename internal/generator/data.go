package generator

import "github.com/verte-zerg/tapixo/internal/model"

var easyWords = []string{
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "it",
	"for", "not", "on", "with", "he", "as", "you", "do", "at", "this",
	"but", "his", "by", "from", "they", "we", "say", "her", "she", "or",
	"an", "will", "my", "one", "all", "would", "there", "their", "what",
	"so", "up", "out", "if", "about", "who", "get", "which", "go", "me",
	"when", "make", "can", "like", "time", "no", "just", "him", "know",
	"take", "people", "into", "year", "your", "good", "some", "could",
	"them", "see", "other", "than", "then", "now", "look", "only", "come",
	"its", "over", "think", "also", "back", "after", "use", "two", "how",
	"our", "work", "first", "well", "way", "even", "new", "want", "because",
}

var mediumWords = []string{
	"program", "syntax", "value", "method", "variable", "network", "server",
	"client", "browser", "script", "update", "function", "object", "array",
	"string", "number", "boolean", "design", "style", "layout", "format",
	"pixel", "color", "image", "audio", "video", "render", "state", "props",
	"hook", "effect", "action", "store", "global", "local", "memory", "data",
	"cloud", "build", "deploy", "debug", "error", "warning", "trace", "stack",
	"queue", "list", "map", "set", "graph", "tree", "node", "root", "leaf",
	"search", "sort", "merge", "split", "slice", "splice", "join", "concat",
	"match", "test", "case", "suite", "bench", "mark", "tool", "chain", "core",
	"utils", "helper", "class", "module", "import", "export", "default", "const",
	"let", "var", "async", "await", "promise", "yield", "return", "throw", "catch",
	"try", "while", "break", "switch", "binary", "system", "kernel", "shell",
}

var hardWords = []string{
	"synchronization", "asynchronous", "multithreading", "concurrency", "parallelism",
	"polymorphism", "encapsulation", "inheritance", "abstraction", "implementation",
	"dependency", "injection", "middleware", "authentication", "authorization",
	"encryption", "decryption", "cryptography", "blockchain", "decentralized",
	"distributed", "system", "architecture", "infrastructure", "deployment",
	"orchestration", "virtualization", "containerization", "microservices", "serverless",
	"scalability", "reliability", "availability", "maintainability", "testability",
	"observability", "metrics", "analytics", "visualization", "optimization",
	"performance", "latency", "throughput", "bandwidth", "protocol", "interface",
	"declaration", "definition", "expression", "statement", "identifier", "literal",
	"operator", "precedence", "associativity", "evaluation", "compilation",
	"interpretation", "execution", "runtime", "environment", "framework", "library",
	"component", "directive", "decorator", "annotation", "configuration", "manifest",
	"specification", "standardization", "normalization", "serialization", "deserialization",
	"idempotency", "immutability", "referential", "transparency", "functional",
}

var quotes = []string{
	"The only way to do great work is to love what you do.",
	"Life is what happens when you're busy making other plans.",
	"The future belongs to those who believe in the beauty of their dreams.",
	"It does not matter how slowly you go as long as you do not stop.",
	"In the end, it's not the years in your life that count. It's the life in your years.",
	"The purpose of our lives is to be happy.",
	"Get busy living or get busy dying.",
	"You only live once, but if you do it right, once is enough.",
	"If you want to live a happy life, tie it to a goal, not to people or things.",
	"Never let the fear of striking out keep you from playing the game.",
	"Your time is limited, so don't waste it living someone else's life.",
	"Not how long, but how well you have lived is the main thing.",
	"If life were predictable it would cease to be life, and be without flavor.",
	"In order to write about life first you must live it.",
	"Curiosity about life in all of its aspects, I think, is still the secret of great creative people.",
}

// Traditional and public domain verses.
var lyrics = []string{
	"Twinkle, twinkle, little star, how I wonder what you are. Up above the world so high, like a diamond in the sky.",
	"Row, row, row your boat, gently down the stream. Merrily, merrily, merrily, merrily, life is but a dream.",
	"Should auld acquaintance be forgot, and never brought to mind? Should auld acquaintance be forgot, and auld lang syne?",
	"Oh my darling, oh my darling, oh my darling Clementine, you are lost and gone forever, dreadful sorry, Clementine.",
	"Home, home on the range, where the deer and the antelope play, where seldom is heard a discouraging word, and the skies are not cloudy all day.",
	"Amazing grace, how sweet the sound, that saved a wretch like me. I once was lost, but now am found, was blind but now I see.",
	"She'll be coming round the mountain when she comes, she'll be driving six white horses when she comes.",
	"I've been working on the railroad all the live long day. I've been working on the railroad just to pass the time away.",
}

var codeKeywords = map[model.Language][]string{
	"javascript": {
		"const", "let", "var", "function", "return", "if", "else", "for", "while", "do",
		"switch", "case", "break", "continue", "default", "try", "catch", "finally",
		"throw", "new", "this", "super", "class", "extends", "import", "export",
		"from", "async", "await", "yield", "void", "typeof", "instanceof", "in",
		"of", "delete", "null", "undefined", "true", "false", "NaN", "Infinity",
	},
	"python": {
		"def", "class", "if", "elif", "else", "for", "while", "break", "continue",
		"return", "yield", "try", "except", "finally", "raise", "import", "from",
		"as", "pass", "with", "lambda", "global", "nonlocal", "del", "assert",
		"True", "False", "None", "and", "or", "not", "is", "in", "async", "await",
	},
	"java": {
		"public", "private", "protected", "static", "final", "void", "int", "double",
		"float", "boolean", "char", "String", "class", "interface", "extends",
		"implements", "new", "return", "if", "else", "switch", "case", "break",
		"default", "for", "while", "do", "try", "catch", "finally", "throw", "throws",
		"package", "import", "this", "super", "null", "true", "false", "synchronized",
	},
	"c++": {
		"int", "float", "double", "char", "void", "bool", "class", "struct", "public",
		"private", "protected", "virtual", "override", "static", "const", "constexpr",
		"if", "else", "switch", "case", "break", "default", "for", "while", "do",
		"return", "new", "delete", "try", "catch", "throw", "namespace", "using",
		"include", "template", "typename", "this", "nullptr", "true", "false", "auto",
	},
	"c#": {
		"public", "private", "protected", "internal", "static", "readonly", "void",
		"int", "string", "bool", "class", "interface", "struct", "enum", "namespace",
		"using", "new", "return", "if", "else", "switch", "case", "break", "default",
		"for", "foreach", "while", "do", "try", "catch", "finally", "throw", "async",
		"await", "var", "null", "true", "false", "this", "base", "delegate", "event",
	},
	"sql": {
		"SELECT", "FROM", "WHERE", "INSERT", "INTO", "UPDATE", "SET", "DELETE",
		"CREATE", "TABLE", "DROP", "ALTER", "INDEX", "VIEW", "JOIN", "INNER",
		"LEFT", "RIGHT", "FULL", "OUTER", "ON", "GROUP", "BY", "ORDER", "HAVING",
		"LIMIT", "OFFSET", "DISTINCT", "UNION", "ALL", "VALUES", "NULL", "NOT",
		"AND", "OR", "IN", "BETWEEN", "LIKE", "AS", "PRIMARY", "KEY", "FOREIGN",
	},
	"html": {
		"html", "head", "body", "title", "meta", "link", "script", "style",
		"div", "span", "p", "a", "img", "ul", "ol", "li", "table", "tr",
		"td", "th", "form", "input", "button", "label", "select", "option",
		"textarea", "h1", "h2", "h3", "h4", "h5", "h6", "header", "footer",
		"nav", "main", "section", "article", "aside", "canvas", "iframe", "video",
	},
	"css": {
		"color", "background", "margin", "padding", "border", "width", "height",
		"display", "position", "top", "bottom", "left", "right", "font", "family",
		"size", "weight", "text", "align", "decoration", "transform", "transition",
		"animation", "flex", "grid", "gap", "justify", "content", "items", "z-index",
		"opacity", "overflow", "cursor", "pointer", "hover", "active", "focus",
		"media", "screen", "min-width", "max-width", "import", "important", "var",
	},
}

var tips = []string{
	"Focus on accuracy first. Speed is a byproduct of precision.",
	"Keep your posture straight and your wrists elevated.",
	"Don't look at the keyboard. Trust your muscle memory.",
	"Type at a steady rhythm. Consistency builds speed.",
	"Return your fingers to the home row after each reach.",
	"Practice specific key combinations that slow you down.",
	"Relax your hands. Tension slows you down.",
	"Use both Shift keys to avoid stretching your hands.",
	"Read ahead slightly to prepare for upcoming words.",
	"Don't rush backspacing. Ctrl+W deletes whole words.",
}
