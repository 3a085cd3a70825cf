package schema

import "sync"

var (
	tabPositions    = Enum{Values: []string{"top", "bottom", "left", "right"}}
	newTabPositions = Enum{Values: []string{"prev", "next", "first", "last"}}
	completionKinds = Enum{Values: []string{"searchengines", "quickmarks", "bookmarks", "history", "filesystem"}}
	statusWidgets   = Enum{Values: []string{"url", "scroll", "scroll_raw", "history", "tabs", "keypress", "progress", "search_match"}}
)

var browserOptions = []Option{
	// url
	{Path: "url.searchengines", Type: Dict{Value: SearchEngineURL{}, Required: []string{"DEFAULT"}},
		Default:     map[string]any{"DEFAULT": "https://duckduckgo.com/?q={}"},
		Description: "Search engines usable via the address bar; DEFAULT is used when no prefix matches."},
	{Path: "url.start_pages", Type: List{Elem: URL{}}, Default: []any{"https://start.duckduckgo.com"},
		Description: "Pages to open at the start."},
	{Path: "url.default_page", Type: URL{}, Default: "https://start.duckduckgo.com/",
		Description: "Page to open if :open -t/-b/-w is used without URL."},
	{Path: "url.open_base_url", Type: Bool{}, Default: false,
		Description: "Open base URL of the search engine if a search engine shortcut is invoked without parameters."},
	{Path: "url.auto_search", Type: Enum{Values: []string{"naive", "dns", "never", "schemeless"}}, Default: "naive",
		Description: "What search to start when something else than a URL is entered."},

	// downloads
	{Path: "downloads.location.directory", Type: Directory{}, Nullable: true,
		Description: "Directory to save downloads to; unset uses the host's default."},
	{Path: "downloads.location.prompt", Type: Bool{}, Default: true,
		Description: "Prompt the user for the download location."},
	{Path: "downloads.location.remember", Type: Bool{}, Default: true,
		Description: "Remember the last used download directory."},
	{Path: "downloads.position", Type: Enum{Values: []string{"top", "bottom"}}, Default: "top",
		Description: "Where to show the downloaded files."},
	{Path: "downloads.remove_finished", Type: IntMin(-1), Default: -1,
		Description: "Milliseconds after which finished downloads are removed; -1 never removes them."},

	// tabs
	{Path: "tabs.position", Type: tabPositions, Default: "top", Description: "Position of the tab bar."},
	{Path: "tabs.show", Type: Enum{Values: []string{"always", "never", "multiple", "switching"}}, Default: "always",
		Description: "When to show the tab bar."},
	{Path: "tabs.background", Type: Bool{}, Default: false,
		Description: "Open new tabs (middleclick/ctrl+click) in the background."},
	{Path: "tabs.new_position.related", Type: newTabPositions, Default: "next",
		Description: "Position of new tabs opened from another tab."},
	{Path: "tabs.new_position.unrelated", Type: newTabPositions, Default: "last",
		Description: "Position of new tabs which are not opened from another tab."},
	{Path: "tabs.last_close", Type: Enum{Values: []string{"ignore", "blank", "startpage", "default-page", "close"}}, Default: "ignore",
		Description: "How to behave when the last tab is closed."},
	{Path: "tabs.select_on_remove", Type: Enum{Values: []string{"prev", "next", "last-used"}}, Default: "next",
		Description: "Which tab to select when the focused tab is removed."},
	{Path: "tabs.title.format", Type: String{AllowEmpty: true}, Default: "{audio}{index}: {current_title}",
		Description: "Format to use for the tab title."},

	// fonts
	{Path: "fonts.default_family", Type: FontFamily{}, Default: []any{},
		Description: "Default font families used for the host interface, in fallback order."},
	{Path: "fonts.default_size", Type: FontSize{}, Default: "10pt", Description: "Default font size for the host interface."},
	{Path: "fonts.hints", Type: String{}, Default: "bold default_size default_family", Description: "Font used for the hints."},
	{Path: "fonts.web.family.monospace", Type: String{AllowEmpty: true}, Default: "",
		Description: "Font family for fixed fonts on web pages."},
	{Path: "fonts.web.family.standard", Type: String{AllowEmpty: true}, Default: "",
		Description: "Font family for standard fonts on web pages."},
	{Path: "fonts.web.family.sans_serif", Type: String{AllowEmpty: true}, Default: "",
		Description: "Font family for sans-serif fonts on web pages."},
	{Path: "fonts.web.family.serif", Type: String{AllowEmpty: true}, Default: "",
		Description: "Font family for serif fonts on web pages."},
	{Path: "fonts.web.size.default", Type: IntRange(1, 1000), Default: 16,
		Description: "Default font size (in pixels) for regular text."},

	// dark mode and web page colours
	{Path: "colors.webpage.darkmode.enabled", Type: Bool{}, Default: false,
		Description: "Render all web contents using a dark theme."},
	{Path: "colors.webpage.darkmode.policy.images", Type: Enum{Values: []string{"always", "never", "smart", "smart-simple"}}, Default: "smart",
		Description: "Which images to apply dark mode to."},
	{Path: "colors.webpage.darkmode.policy.page", Type: Enum{Values: []string{"always", "smart", "auto"}}, Default: "smart",
		Description: "Which pages to apply dark mode to."},
	{Path: "colors.webpage.darkmode.algorithm", Type: Enum{Values: []string{"lightness-cielab", "lightness-hsl", "brightness-rgb"}}, Default: "lightness-cielab",
		Description: "Which algorithm to use for modifying how colors are rendered with dark mode."},
	{Path: "colors.webpage.preferred_color_scheme", Type: Enum{Values: []string{"auto", "light", "dark"}}, Default: "auto",
		Description: "Value to use for prefers-color-scheme."},
	{Path: "colors.webpage.bg", Type: Color{}, Default: "white", Description: "Background color for web pages if unset."},

	// content
	{Path: "content.headers.do_not_track", Type: Bool{}, Default: true, Description: "Send the DNT header."},
	{Path: "content.headers.accept_language", Type: String{}, Default: "en-US,en;q=0.9",
		Description: "Value to send in the Accept-Language header."},
	{Path: "content.cookies.accept", Type: Enum{Values: []string{"all", "no-3rdparty", "no-unknown-3rdparty", "never"}}, Default: "all",
		Description: "Which cookies to accept."},
	{Path: "content.cookies.store", Type: Bool{}, Default: true, Description: "Store cookies."},
	{Path: "content.geolocation", Type: BoolAsk{}, Default: "ask", Description: "Allow websites to request geolocations."},
	{Path: "content.notifications.enabled", Type: BoolAsk{}, Default: "ask", Description: "Allow websites to show notifications."},
	{Path: "content.media.audio_capture", Type: BoolAsk{}, Default: "ask", Description: "Allow websites to record audio."},
	{Path: "content.media.video_capture", Type: BoolAsk{}, Default: "ask", Description: "Allow websites to record video."},
	{Path: "content.developer_extras", Type: Bool{}, Default: false, Description: "Enable the web inspector."},
	{Path: "content.javascript.enabled", Type: Bool{}, Default: true, Description: "Enable JavaScript."},
	{Path: "content.javascript.can_access_clipboard", Type: Bool{}, Default: false,
		Description: "Allow JavaScript to read from or write to the clipboard."},
	{Path: "content.autoplay", Type: Bool{}, Default: true, Description: "Automatically start playing video elements."},
	{Path: "content.images", Type: Bool{}, Default: true, Description: "Load images automatically in web pages."},
	{Path: "content.pdfjs", Type: Bool{}, Default: false, Description: "Display PDF files via an embedded viewer."},
	{Path: "content.private_browsing", Type: Bool{}, Default: false, Description: "Open new windows in private browsing mode."},
	{Path: "content.cache.size", Type: IntMin(0), Nullable: true,
		Description: "Size (in bytes) of the HTTP network cache; unset uses the host's default."},
	{Path: "content.ssl_strict", Type: BoolAsk{}, Default: "ask", Description: "How to proceed on TLS certificate errors."},
	{Path: "content.host_blocking.enabled", Type: Bool{}, Default: true, Description: "Enable host blocking."},
	{Path: "content.host_blocking.lists", Type: List{Elem: URL{}, Unique: true},
		Default:     []any{"https://raw.githubusercontent.com/StevenBlack/hosts/master/hosts"},
		Description: "Lists of hosts to block."},
	{Path: "content.host_blocking.whitelist", Type: List{Elem: String{}}, Default: []any{},
		Description: "Hosts which are never blocked."},

	// completion
	{Path: "completion.height", Type: PercOrInt{}, Default: "50%",
		Description: "Height (in pixels or as percentage of the window) of the completion."},
	{Path: "completion.open_categories", Type: List{Elem: completionKinds, Unique: true},
		Default:     []any{"searchengines", "quickmarks", "bookmarks", "history", "filesystem"},
		Description: "Which categories to show (in which order) in the :open completion."},
	{Path: "completion.show", Type: Enum{Values: []string{"always", "auto", "never"}}, Default: "always",
		Description: "When to show the autocompletion window."},
	{Path: "completion.shrink", Type: Bool{}, Default: false, Description: "Shrink the completion to be smaller than the configured size if there are no scrollbars."},
	{Path: "completion.quick", Type: Bool{}, Default: true, Description: "Move on to the next part when there's only one possible completion left."},
	{Path: "completion.web_history.max_items", Type: IntMin(-1), Default: -1,
		Description: "Number of URLs to show in the web history; -1 shows all."},

	// scrolling
	{Path: "scrolling.smooth", Type: Bool{}, Default: false, Description: "Enable smooth scrolling for web pages."},
	{Path: "scrolling.bar", Type: Enum{Values: []string{"always", "never", "when-searching", "overlay"}}, Default: "overlay",
		Description: "When/how to show the scrollbar."},

	// statusbar
	{Path: "statusbar.show", Type: Enum{Values: []string{"always", "never", "in-mode"}}, Default: "always",
		Description: "When to show the statusbar."},
	{Path: "statusbar.position", Type: Enum{Values: []string{"top", "bottom"}}, Default: "bottom",
		Description: "Position of the status bar."},
	{Path: "statusbar.widgets", Type: List{Elem: statusWidgets, Unique: true},
		Default:     []any{"keypress", "search_match", "url", "scroll", "history", "tabs", "progress"},
		Description: "List of widgets displayed in the statusbar."},

	// session
	{Path: "session.lazy_restore", Type: Bool{}, Default: false, Description: "Load a restored tab as soon as it takes focus."},
	{Path: "session.default_name", Type: String{}, Nullable: true, Description: "Name of the session to save by default."},
	{Path: "auto_save.session", Type: Bool{}, Default: false, Description: "Always restore open sites when the host is reopened."},
	{Path: "auto_save.interval", Type: IntMin(0), Default: 15000, Description: "Time interval (in milliseconds) between auto-saves of config/cookies/etc."},

	// input, hints and misc
	{Path: "input.insert_mode.auto_load", Type: Bool{}, Default: false, Description: "Automatically enter insert mode if an editable element is focused after loading the page."},
	{Path: "input.insert_mode.auto_leave", Type: Bool{}, Default: true, Description: "Leave insert mode if a non-editable element is clicked."},
	{Path: "hints.chars", Type: String{}, Default: "asdfghjkl", Description: "Characters used for hint strings."},
	{Path: "hints.mode", Type: Enum{Values: []string{"number", "letter", "word"}}, Default: "letter", Description: "Mode to use for hints."},
	{Path: "zoom.default", Type: PercOrInt{}, Default: "100%", Description: "Default zoom level."},
	{Path: "messages.timeout", Type: IntMin(0), Default: 3000, Description: "Duration (in milliseconds) to show messages in the statusbar for."},
	{Path: "window.title_format", Type: String{AllowEmpty: true}, Default: "{perc}{current_title}{title_sep}qutebrowser",
		Description: "Format to use for the window title."},
	{Path: "editor.command", Type: List{Elem: String{}}, Default: []any{"gvim", "-f", "{file}", "-c", "normal {line}G{column0}l"},
		Description: "Editor (and arguments) to use for the edit-* commands."},
	{Path: "spellcheck.languages", Type: List{Elem: String{}, Unique: true}, Default: []any{}, Description: "Languages to use for spell checking."},
	{Path: "confirm_quit", Type: List{Elem: Enum{Values: []string{"always", "multiple-tabs", "downloads", "never"}}, Unique: true},
		Default: []any{"never"}, Description: "Require a confirmation before quitting the application."},
	{Path: "new_instance_open_target", Type: Enum{Values: []string{"tab", "tab-bg", "tab-silent", "tab-bg-silent", "window", "private-window"}},
		Default: "tab", Description: "How to open links in an existing instance if a new one is launched."},
}

// colorOptions lists the interface colour keys as (path, default) pairs.
var colorOptions = [][2]string{
	{"colors.completion.bg", "#333333"},
	{"colors.completion.fg", "white"},
	{"colors.completion.odd.bg", "#444444"},
	{"colors.completion.odd.fg", "white"},
	{"colors.completion.even.bg", "#333333"},
	{"colors.completion.match.fg", "#ff4444"},
	{"colors.completion.scrollbar.bg", "#333333"},
	{"colors.completion.scrollbar.fg", "white"},
	{"colors.completion.category.bg", "#888888"},
	{"colors.completion.category.fg", "white"},
	{"colors.completion.category.border.bottom", "black"},
	{"colors.completion.category.border.top", "black"},
	{"colors.completion.item.selected.bg", "#e8c000"},
	{"colors.completion.item.selected.fg", "black"},
	{"colors.completion.item.selected.border.bottom", "#bbbb00"},
	{"colors.completion.item.selected.border.top", "#bbbb00"},

	{"colors.statusbar.normal.bg", "black"},
	{"colors.statusbar.normal.fg", "white"},
	{"colors.statusbar.insert.bg", "darkgreen"},
	{"colors.statusbar.insert.fg", "white"},
	{"colors.statusbar.command.bg", "black"},
	{"colors.statusbar.command.fg", "white"},
	{"colors.statusbar.caret.bg", "purple"},
	{"colors.statusbar.caret.fg", "white"},
	{"colors.statusbar.passthrough.bg", "darkblue"},
	{"colors.statusbar.passthrough.fg", "white"},
	{"colors.statusbar.private.bg", "#666666"},
	{"colors.statusbar.private.fg", "white"},

	{"colors.tabs.bar.bg", "#555555"},
	{"colors.tabs.even.bg", "darkgrey"},
	{"colors.tabs.even.fg", "white"},
	{"colors.tabs.odd.bg", "grey"},
	{"colors.tabs.odd.fg", "white"},
	{"colors.tabs.selected.even.bg", "black"},
	{"colors.tabs.selected.even.fg", "white"},
	{"colors.tabs.selected.odd.bg", "black"},
	{"colors.tabs.selected.odd.fg", "white"},

	{"colors.hints.bg", "#ffcc33"},
	{"colors.hints.fg", "black"},
	{"colors.hints.match.fg", "green"},

	{"colors.downloads.bar.bg", "black"},
	{"colors.downloads.start.bg", "#0000aa"},
	{"colors.downloads.start.fg", "white"},
	{"colors.downloads.stop.bg", "#00aa00"},
	{"colors.downloads.stop.fg", "white"},
	{"colors.downloads.error.bg", "red"},
	{"colors.downloads.error.fg", "white"},

	{"colors.messages.error.bg", "red"},
	{"colors.messages.error.fg", "white"},
	{"colors.messages.error.border", "#bb0000"},
	{"colors.messages.warning.bg", "darkorange"},
	{"colors.messages.warning.fg", "black"},
	{"colors.messages.warning.border", "#d47300"},
	{"colors.messages.info.bg", "black"},
	{"colors.messages.info.fg", "white"},
	{"colors.messages.info.border", "#333333"},

	{"colors.prompts.bg", "#444444"},
	{"colors.prompts.fg", "white"},
	{"colors.prompts.border", "grey"},
	{"colors.prompts.selected.bg", "grey"},
	{"colors.prompts.selected.fg", "white"},
}

var (
	browserOnce sync.Once
	browser     *Schema
)

func buildBrowser() *Schema {
	opts := make([]Option, 0, len(browserOptions)+len(colorOptions))
	opts = append(opts, browserOptions...)
	for _, c := range colorOptions {
		opts = append(opts, Option{
			Path:        c[0],
			Type:        Color{},
			Default:     c[1],
			Description: "Interface color.",
		})
	}
	return MustNew(opts...)
}

// Browser returns the schema of the browser host. The returned value is shared
// and must not be modified. It is built on first use, after the value
// patterns of the option types are initialized.
func Browser() *Schema {
	browserOnce.Do(func() {
		browser = buildBrowser()
	})
	return browser
}
