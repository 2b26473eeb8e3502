package port

// DefaultPorts 默认扫描端口：常见服务、数据库、管理接口与移动设备端口
var DefaultPorts = []int{
	20, 21, 22, 23, 25, 53, 80, 110, 111, 135, 139, 143, 443, 445, 465, 587, 993, 995,
	1433, 1521, 3306, 3389, 5432, 5900, 5985, 5986, 6379, 8000, 8080, 8443, 8888, 9090,
	27017, 27018, 5000, 5001, 9200, 9300, 11211, 50000,
	5353,  // mDNS
	62078, // Apple lockdownd
	7000,  // AirPlay
	3689,  // DAAP
	8009,  // Chromecast
	8008,  // Chromecast HTTP
}

// httpPorts 建立连接后需要主动发送请求才会返回 banner 的端口
var httpPorts = map[int]bool{
	80:   true,
	8000: true,
	8008: true,
	8080: true,
	8888: true,
}
