package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BTreeMap/ReportPipe/internal/areas"
	"github.com/BTreeMap/ReportPipe/internal/disaster"
	"github.com/BTreeMap/ReportPipe/internal/models"
	"github.com/BTreeMap/ReportPipe/internal/timeparse"
)

// Command keywords, matched case-insensitively after trimming.
const (
	CommandRestart = "ulangi"
	CommandSkip    = "lewati"
	CommandSend    = "kirim"
	// CommandEditPrefix matches any answer starting with it at the confirm step.
	CommandEditPrefix = "ubah"
)

// StartCommands open a new report when the reporter has no session.
var StartCommands = []string{"lapor", "bencana"}

// Fixed replies.
const (
	PromptNoSession     = `Ketik "LAPOR" untuk memulai laporan bencana.`
	PromptStart         = "Halo! Siapa nama Anda sebagai pelapor?"
	PromptRestart       = "Baik, kita mulai ulang.\nSiapa nama Anda sebagai pelapor?"
	PromptNameRequired  = "Tolong berikan nama Anda."
	PromptLocation      = "Kirim *Lokasi* via Share Location (WA) atau ketik alamat lengkap."
	PromptLocationBad   = "Lokasi tidak valid, coba kirim ulang via Share Location ya."
	PromptLocationNeed  = "Butuh lokasi. Share Location atau ketik alamat."
	PromptDescription   = "Deskripsi singkat (≤ 500 karakter):"
	PromptDescriptionRe = "Tolong tulis deskripsi singkat."
	PromptSeverity      = `Keparahan? (Rendah/Sedang/Tinggi) atau balas "LEWATI"`
	PromptEdit          = "Tulis bagian yang ingin diubah: JENIS/LOKASI/WAKTU/DESKRIPSI/SEVERITY"
	PromptConfirmRe     = "Balas KIRIM untuk mengirim. Atau ULANGI untuk memulai ulang."
	PromptVillageBadNum = `Nomor tidak valid. Ketik nomor atau "LEWATI".`
	PromptVillageMiss   = `Desa/Kelurahan tidak ditemukan. Coba lagi atau ketik "LEWATI".`

	PromptSubmitTransient = "⚠️ Server database sedang bermasalah. Data Anda masih tersimpan sementara. " +
		"Silakan coba lagi dalam beberapa saat atau hubungi admin.\n\n" +
		"Form Anda akan tetap tersimpan sampai bisa disimpan ke database."
	PromptSubmitPermanent = "⚠️ Terjadi kesalahan saat menyimpan laporan. Silakan coba lagi atau hubungi admin.\n\n" +
		"Form Anda masih tersimpan, silakan coba kirim lagi."

	// PromptApology is sent when handling a message fails unexpectedly.
	PromptApology = "Maaf, terjadi kesalahan saat memproses pesan Anda. Silakan coba lagi atau hubungi admin."
)

func promptType() string {
	n := len(models.DisasterTypes)
	return fmt.Sprintf("Jenis bencana?\n%s\n\nKetik nomor (1-%d) atau tulis jenis.", disaster.FormatChoices(), n)
}

func promptTime() string {
	return "Kapan kejadiannya? Balas:\n• SEKARANG\natau tulis tanggal dan jam seperti: 12 Nov 2025 14:30\n"
}

func promptTimeInvalid() string {
	return "Format waktu tidak dikenali. Contoh:\n" + promptTime()
}

func promptDistricts(idx *areas.Index) string {
	return fmt.Sprintf("Pilih Kecamatan:\n%s\n\nKetik nomor (1-%d) atau \"LEWATI\" untuk melewati.",
		idx.FormatDistricts(), idx.DistrictCount())
}

func promptDistrictInvalid(idx *areas.Index) string {
	return fmt.Sprintf("Nomor tidak valid. Ketik nomor 1-%d atau \"LEWATI\".", idx.DistrictCount())
}

func promptVillages(idx *areas.Index, district string) string {
	return fmt.Sprintf("Kecamatan: %s\n\nPilih Desa/Kelurahan:\n%s\n\nKetik nomor atau \"LEWATI\" untuk melewati.",
		district, idx.FormatSettlements(district))
}

func promptSuccess(mapBaseURL, id string) string {
	return fmt.Sprintf("Terima kasih. ID: %s\nPeta: %s/report/%s", id, strings.TrimRight(mapBaseURL, "/"), id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// summary renders every stored field for the confirm step.
func summary(f *models.Form) string {
	location := f.Address
	if location == "" && f.HasCoordinates() {
		location = strconv.FormatFloat(*f.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(*f.Longitude, 'f', -1, 64)
	}
	when := ""
	if f.OccurredAt != nil {
		when = timeparse.Format(*f.OccurredAt)
	}

	var b strings.Builder
	b.WriteString("Cek ringkasan:\n")
	fmt.Fprintf(&b, "• Nama: %s\n", orDash(f.Name))
	fmt.Fprintf(&b, "• Jenis: %s\n", orDash(string(f.DisasterType)))
	fmt.Fprintf(&b, "• Alamat: %s\n", orDash(location))
	fmt.Fprintf(&b, "• Kecamatan: %s\n", orDash(f.District))
	fmt.Fprintf(&b, "• Desa/Kelurahan: %s\n", orDash(f.Village))
	fmt.Fprintf(&b, "• Waktu: %s\n", orDash(when))
	fmt.Fprintf(&b, "• Deskripsi: %s\n", orDash(f.Description))
	fmt.Fprintf(&b, "• Severity: %s\n", orDash(f.Severity))
	b.WriteString("\nBalas KIRIM untuk kirim atau ULANGI untuk memulai ulang.")
	return b.String()
}
