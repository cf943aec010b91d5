package i18n

// Catalog maps message keys to templates. "{{name}}" placeholders are
// filled by Bundle.T.
type Catalog map[string]string

var catalogs = map[Locale]Catalog{
	EN: {
		"appTitle":            "MetroDiver",
		"transitMap":          "Transit Map",
		"serviceStatus":       "Service Status",
		"userCenter":          "User Center",
		"login":               "Login",
		"logout":              "Logout",
		"register":            "Register",
		"notLoggedIn":         "Not logged in, please log in first",
		"close":               "Close",
		"line":                "Line",
		"accessibility":       "Accessibility",
		"schedule":            "Schedule",
		"yes":                 "Yes",
		"no":                  "No",
		"noDepartures":        "No {{dir}} departures",
		"departed":            "Departed",
		"nextTrain":           "Next train in {{min}} min",
		"accessibilityequi":   "Accessibility Equipment",
		"elevator":            "Elevator",
		"otherEquipment":      "Other equipment",
		"active":              "active",
		"inactive":            "out of service",
		"loading":             "Loading...",
		"notFound":            "Page not found",
		"backHome":            "Back to the map",
		"favoriteLines":       "Favorite lines",
		"save":                "Save",
		"clear":               "Clear",
		"saved":               "Favorites saved",
		"cleared":             "Favorites cleared",
		"storageFailed":       "Local storage is unavailable",
		"serviceAlerts":       "Service alerts",
		"noAlerts":            "Good service on your lines",
		"alertsUnavailable":   "Alerts unavailable",
		"alertsUpdated":       "updated {{time}}",
		"stationsFailed":      "Could not load stations",
		"scheduleUnavailable": "Schedule unavailable",
		"email":               "Email",
		"password":            "Password",
		"registered":          "Account created. Check {{email}} to verify it, then log in.",
		"resendVerify":        "Resend verification email",
		"verifySent":          "Verification email sent",
		"welcome":             "Welcome, {{name}}",
		"avatar":              "Avatar",
		"noAvatar":            "No avatar uploaded",
		"avatarUpdated":       "Avatar updated",
		"loggedOut":           "Logged out",
		"locateFailed":        "Could not find {{place}}",
		"nearestStation":      "Nearest station: {{name}} ({{dist}} m)",
		"language":            "Language",

		"authEmailInUse":      "This email is already registered",
		"authInvalidEmail":    "Invalid email address",
		"authWeakPassword":    "Password must be at least 6 characters",
		"authUserNotFound":    "No account found for this email",
		"authWrongPassword":   "Wrong password",
		"authNetwork":         "Network error, please try again",
		"authEmailUnverified": "Please verify your email before logging in",
		"authGeneric":         "Something went wrong, please try again",
	},
	ZH: {
		"appTitle":            "地铁导航",
		"transitMap":          "线路图",
		"serviceStatus":       "服务状态",
		"userCenter":          "用户中心",
		"login":               "登录",
		"logout":              "登出",
		"register":            "注册",
		"notLoggedIn":         "未登录，请先登录",
		"close":               "关闭",
		"line":                "线路",
		"accessibility":       "无障碍",
		"schedule":            "时刻表",
		"yes":                 "是",
		"no":                  "否",
		"noDepartures":        "没有{{dir}}方向的列车",
		"departed":            "已发车",
		"nextTrain":           "下一班列车 {{min}} 分钟",
		"accessibilityequi":   "无障碍设施",
		"elevator":            "电梯",
		"otherEquipment":      "其他设施",
		"active":              "运行中",
		"inactive":            "停用",
		"loading":             "加载中...",
		"notFound":            "页面不存在",
		"backHome":            "返回地图",
		"favoriteLines":       "收藏线路",
		"save":                "保存",
		"clear":               "清除",
		"saved":               "收藏已保存",
		"cleared":             "收藏已清除",
		"storageFailed":       "本地存储不可用",
		"serviceAlerts":       "服务公告",
		"noAlerts":            "您的线路运行正常",
		"alertsUnavailable":   "公告暂不可用",
		"alertsUpdated":       "更新于 {{time}}",
		"stationsFailed":      "无法加载车站",
		"scheduleUnavailable": "时刻表暂不可用",
		"email":               "邮箱",
		"password":            "密码",
		"registered":          "账户已创建。请查收 {{email}} 完成验证后登录。",
		"resendVerify":        "重新发送验证邮件",
		"verifySent":          "验证邮件已发送",
		"welcome":             "欢迎，{{name}}",
		"avatar":              "头像",
		"noAvatar":            "尚未上传头像",
		"avatarUpdated":       "头像已更新",
		"loggedOut":           "已登出",
		"locateFailed":        "找不到 {{place}}",
		"nearestStation":      "最近的车站：{{name}}（{{dist}} 米）",
		"language":            "语言",

		"authEmailInUse":      "该邮箱已被注册",
		"authInvalidEmail":    "邮箱地址无效",
		"authWeakPassword":    "密码至少需要 6 个字符",
		"authUserNotFound":    "该邮箱没有对应的账户",
		"authWrongPassword":   "密码错误",
		"authNetwork":         "网络错误，请重试",
		"authEmailUnverified": "请先验证邮箱再登录",
		"authGeneric":         "出错了，请重试",
	},
	ES: {
		"appTitle":            "MetroDiver",
		"transitMap":          "Mapa",
		"serviceStatus":       "Estado del servicio",
		"userCenter":          "Centro de usuario",
		"login":               "Iniciar sesión",
		"logout":              "Cerrar sesión",
		"register":            "Registrarse",
		"notLoggedIn":         "No ha iniciado sesión",
		"close":               "Cerrar",
		"line":                "Línea",
		"accessibility":       "Accesibilidad",
		"schedule":            "Horario",
		"yes":                 "Sí",
		"no":                  "No",
		"noDepartures":        "Sin salidas hacia {{dir}}",
		"departed":            "Partido",
		"nextTrain":           "Próximo tren en {{min}} min",
		"accessibilityequi":   "Equipo de accesibilidad",
		"elevator":            "Ascensor",
		"otherEquipment":      "Otro equipo",
		"active":              "activo",
		"inactive":            "fuera de servicio",
		"loading":             "Cargando...",
		"notFound":            "Página no encontrada",
		"backHome":            "Volver al mapa",
		"favoriteLines":       "Líneas favoritas",
		"save":                "Guardar",
		"clear":               "Borrar",
		"saved":               "Favoritos guardados",
		"cleared":             "Favoritos borrados",
		"storageFailed":       "El almacenamiento local no está disponible",
		"serviceAlerts":       "Avisos de servicio",
		"noAlerts":            "Servicio normal en sus líneas",
		"alertsUnavailable":   "Avisos no disponibles",
		"alertsUpdated":       "actualizado {{time}}",
		"stationsFailed":      "No se pudieron cargar las estaciones",
		"scheduleUnavailable": "Horario no disponible",
		"email":               "Correo",
		"password":            "Contraseña",
		"registered":          "Cuenta creada. Revise {{email}} para verificarla y luego inicie sesión.",
		"resendVerify":        "Reenviar correo de verificación",
		"verifySent":          "Correo de verificación enviado",
		"welcome":             "Bienvenido, {{name}}",
		"avatar":              "Avatar",
		"noAvatar":            "Sin avatar",
		"avatarUpdated":       "Avatar actualizado",
		"loggedOut":           "Sesión cerrada",
		"locateFailed":        "No se encontró {{place}}",
		"nearestStation":      "Estación más cercana: {{name}} ({{dist}} m)",
		"language":            "Idioma",

		"authEmailInUse":      "Este correo ya está registrado",
		"authInvalidEmail":    "Correo no válido",
		"authWeakPassword":    "La contraseña debe tener al menos 6 caracteres",
		"authUserNotFound":    "No existe una cuenta con este correo",
		"authWrongPassword":   "Contraseña incorrecta",
		"authNetwork":         "Error de red, inténtelo de nuevo",
		"authEmailUnverified": "Verifique su correo antes de iniciar sesión",
		"authGeneric":         "Algo salió mal, inténtelo de nuevo",
	},
}
