package areas

// sanggau lists the kecamatan of Kabupaten Sanggau in the order they are
// numbered for reporters.
var sanggau = []District{
	{
		Name:     "Kapuas",
		Urban:    []string{"Beringin", "Bunut", "Ilir Kota", "Sungai Sengkuang", "Tanjung Kapuas", "Tanjung Sekayam"},
		Villages: []string{"Belangin", "Botuh Lintang", "Entakai", "Kambong", "Lape", "Lintang Kapuas", "Lintang Pelaman", "Mengkiang", "Nanga Biang", "Pana", "Penyeladi", "Penyelimau", "Penyelimau Jaya", "Rambin", "Semerangkai", "Sungai Alai", "Sungai Batu", "Sungai Mawang", "Sungai Muntik", "Tapang Dulang"},
	},
	{
		Name:     "Balai",
		Villages: []string{"Bulu Bala", "Cowet", "Empirang Ujung", "Hilir Kebadu", "Mak Kawing", "Padi Kaye", "Semoncol", "Senyabang", "Tae", "Temiang Mali", "Temiang Taba"},
	},
	{
		Name:     "Beduai",
		Villages: []string{"Bereng Berkawat", "Kasro Mego", "Mawang Muda", "Sungai Ilai", "Thang Raya"},
	},
	{
		Name:     "Bonti",
		Villages: []string{"Bahta", "Bantai", "Bonti", "Empodis", "Kampuh", "Majel", "Sami", "Tunggul Boyok", "Upe"},
	},
	{
		Name:     "Entikong",
		Villages: []string{"Entikong", "Nekan", "Pala Pasang", "Semanget", "Suruh Tembawang"},
	},
	{
		Name:     "Jangkang",
		Villages: []string{"Balai Sebut", "Empiyang", "Jangkang Benua", "Ketori", "Pisang", "Sape", "Selampung", "Semirau", "Semombat", "Tanggung", "Terati"},
	},
	{
		Name:     "Kembayan",
		Villages: []string{"Kelompu", "Kuala Dua", "Mobui", "Sebongkuh", "Sebuduh", "Sejuah", "Semayang", "Tanjung Bunga", "Tanjung Merpati", "Tanap", "Tunggal Bhakti"},
	},
	{
		Name:     "Meliau",
		Villages: []string{"Balai Tinggi", "Baru Lombak", "Bhakti Jaya", "Cupang", "Enggadai", "Harapan Makmur", "Kuala Buayan", "Kuala Rosan", "Kunyil", "Lalang", "Melawi Makmur", "Meliau Hilir", "Meliau Hulu", "Melobok", "Meranggau", "Mukti Jaya", "Pampang Dua", "Sungai Kembayau", "Sungai Mayam"},
	},
	{
		Name:     "Mukok",
		Villages: []string{"Engkode", "Inggis", "Kedukul", "Layak", "Omang", "Semanggis Raya", "Semuntai", "Serambai Jaya", "Sungai Mawang"},
	},
	{
		Name:     "Noyan",
		Villages: []string{"Empoto", "Idas", "Noyan", "Semongan", "Sungai Dangin"},
	},
	{
		Name:     "Parindu",
		Villages: []string{"Dosan", "Embala", "Gunam", "Hibun", "Maju Karya", "Maringin Jaya", "Marita", "Palem Jaya", "Pandu Raya", "Pusat Damai", "Rahayu", "Sebara", "Suka Gerundi", "Suka Mulya"},
	},
	{
		Name:     "Sekayam",
		Villages: []string{"Balai Karangan", "Bungkang", "Engkahan", "Kenaman", "Lubuk Sabuk", "Melenggang", "Pengadang", "Raut Muara", "Sangai Tekam", "Sotok"},
	},
	{
		Name:     "Tayan Hilir",
		Villages: []string{"Balai Ingin", "Beginjan", "Cempedak", "Emberas", "Kawat", "Lalang", "Melugai", "Pedalaman", "Pulau Tayan Utara", "Sebemban", "Sejotang", "Subah", "Sungai Jaman", "Tanjung Bunut", "Tebang Benua"},
	},
	{
		Name:     "Tayan Hulu",
		Villages: []string{"Berakak", "Binjai", "Engkasan", "Janji", "Mandong", "Menyabo", "Pandes", "Peruan Dalam", "Ria Lati", "Sebedau", "Sosok"},
	},
	{
		Name:     "Toba",
		Villages: []string{"Balai Belungai", "Belungai Dalam", "Kampung Baru", "Kuala Bhe", "Sansat", "Tebang", "Teraju"},
	},
}
