package repository

import (
	"context"
	"fmt"

	"github.com/dompetdev/dompetbot/internal/model"
)

var defaultAccounts = []model.Account{
	{ID: "1", Name: "BCA Main", Type: model.AccountBank, Balance: 0, Icon: "🏦"},
	{ID: "2", Name: "GoPay", Type: model.AccountEWallet, Balance: 0, Icon: "📱"},
	{ID: "3", Name: "Cash Wallet", Type: model.AccountCash, Balance: 0, Icon: "💵"},
}

// Keyword sets that drive transaction auto-classification out of the box.
var defaultCategories = []model.Category{
	{ID: "cat1", Name: "Food", Icon: "🍔", Type: model.TypeExpense, Keywords: "makan,makanan,food,bakso,mie,nasi,ayam,sate,gorengan,jajan,snack,kopi,coffee,starbucks,mcd,kfc,pizza,burger,resto,restaurant,warung,kantin,cafe,breakfast,lunch,dinner,sarapan,makan siang,makan malam,es,minuman,drink,boba,bubble tea,martabak,roti,bread,indomie,gofood,grabfood,shopeefood"},
	{ID: "cat2", Name: "Transport", Icon: "🚗", Type: model.TypeExpense, Keywords: "transport,transportasi,gojek,grab,ojek,taxi,taksi,bus,kereta,train,mrt,lrt,transjakarta,tj,bensin,bbm,fuel,parkir,parking,tol,toll,uber,angkot,bajaj,ojol,motor,mobil,car,bike"},
	{ID: "cat3", Name: "Shopping", Icon: "🛍️", Type: model.TypeExpense, Keywords: "shopping,belanja,beli,shop,mall,tokopedia,shopee,lazada,bukalapak,blibli,zalora,fashion,baju,celana,sepatu,shoes,tas,bag,jam,watch,aksesoris,accessories,elektronik,electronic,gadget,hp,phone,laptop,komputer,computer"},
	{ID: "cat4", Name: "Bills", Icon: "📄", Type: model.TypeExpense, Keywords: "bills,tagihan,listrik,electricity,pln,air,pdam,gas,internet,wifi,indihome,telkom,pulsa,paket data,kuota,telepon,phone bill,tv kabel,netflix,spotify,subscription,langganan,iuran,cicilan,kredit,pinjaman,loan,asuransi,insurance,pajak,tax"},
	{ID: "cat5", Name: "Health", Icon: "🏥", Type: model.TypeExpense, Keywords: "health,kesehatan,dokter,doctor,rumah sakit,hospital,klinik,clinic,obat,medicine,apotek,pharmacy,vitamin,suplemen,supplement,gym,fitness,olahraga,sport,medical,medis,sakit,sick,checkup,dental,gigi,mata,eye"},
	{ID: "cat6", Name: "Entertainment", Icon: "🎬", Type: model.TypeExpense, Keywords: "entertainment,hiburan,nonton,bioskop,cinema,movie,film,konser,concert,game,gaming,steam,playstation,xbox,nintendo,karaoke,bar,club,party,pesta,liburan,vacation,holiday,travel,wisata,hotel,tiket,ticket"},
	{ID: "cat7", Name: "Education", Icon: "📚", Type: model.TypeExpense, Keywords: "education,pendidikan,sekolah,school,kuliah,university,kampus,buku,book,kursus,course,les,tutor,training,pelatihan,sertifikasi,certification,udemy,coursera,skillshare,workshop,seminar,webinar"},
	{ID: "cat8", Name: "Investment", Icon: "📈", Type: model.TypeExpense, Keywords: "investment,investasi,saham,stock,reksadana,mutual fund,crypto,bitcoin,deposito,deposit,obligasi,bond,emas,gold,properti,property,trading,forex,bibit,ajaib,stockbit,pluang,bareksa"},
	{ID: "cat9", Name: "Other", Icon: "📦", Type: model.TypeExpense, Keywords: "other,lainnya,lain,misc,miscellaneous"},
	{ID: "cat10", Name: "Salary", Icon: "💼", Type: model.TypeIncome, Keywords: "salary,gaji,gajian,payroll,income,pendapatan,upah,honor,honorarium,bonus,thr,tunjangan,allowance"},
	{ID: "cat11", Name: "Freelance", Icon: "💻", Type: model.TypeIncome, Keywords: "freelance,freelancer,project,proyek,jasa,service,fee,bayaran,client,klien,side job,sampingan"},
	{ID: "cat12", Name: "Gift", Icon: "🎁", Type: model.TypeIncome, Keywords: "gift,hadiah,kado,angpao,angpau,reward,cashback,refund,pengembalian"},
}

// Seed installs the default accounts (only when the table is empty) and the
// default classification categories (idempotent).
func (s *SQLiteStore) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}
	if count == 0 {
		for _, a := range defaultAccounts {
			if err := s.AddAccount(ctx, &a); err != nil {
				return fmt.Errorf("failed to seed account %s: %w", a.Name, err)
			}
		}
	}

	for _, c := range defaultCategories {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (id, name, icon, keywords, type) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Icon, c.Keywords, c.Type)
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.Name, err)
		}
	}
	return nil
}
